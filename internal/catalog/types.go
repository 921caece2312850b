// Package catalog defines the movie records the client state works with and
// the pure presentation helpers around them (image URLs, trailers, formatting).
//
// JSON tags follow the catalog provider's snake_case wire names so a persisted
// favorites list reads the same as the provider's own records.
package catalog

// Movie is a catalog summary record. ID is the identity; every fetch replaces
// the whole record.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// Genre is a named catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a studio credited on a title.
type ProductionCompany struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	LogoPath *string `json:"logo_path"`
}

// Video is a clip hosted on an external site.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Videos groups the videos appended to a detail record.
type Videos struct {
	Results []Video `json:"results"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
}

// Credits groups the cast appended to a detail record.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// MovieDetail is a Movie plus the supplemental data fetched for the detail view.
// Videos and Credits are nil when the provider did not return them.
type MovieDetail struct {
	Movie
	Runtime             *int                `json:"runtime"`
	Tagline             string              `json:"tagline"`
	Status              string              `json:"status"`
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	Videos              *Videos             `json:"videos,omitempty"`
	Credits             *Credits            `json:"credits,omitempty"`
}

// TrailerURL resolves the embeddable trailer for the detail record.
func (d *MovieDetail) TrailerURL() (string, bool) {
	if d == nil || d.Videos == nil {
		return "", false
	}
	return ResolveTrailerURL(d.Videos.Results)
}

// TopCast returns at most n cast members in billing order.
func (d *MovieDetail) TopCast(n int) []CastMember {
	if d == nil || d.Credits == nil {
		return nil
	}
	if len(d.Credits.Cast) <= n {
		return d.Credits.Cast
	}
	return d.Credits.Cast[:n]
}
