package movies

import "github.com/moviedeck/moviedeck/internal/catalog"

// Card is a movie as shown in a grid of results.
type Card struct {
	catalog.Movie
	PosterURL string `json:"posterUrl"`
	Year      string `json:"year"`
	Rating    string `json:"rating"`
	Favorite  bool   `json:"isFavorite"`
}

// CastCard is a cast member with a resolved portrait.
type CastCard struct {
	catalog.CastMember
	ProfileURL string `json:"profileUrl,omitempty"`
}

// DetailView is the detail record with every derived display field resolved.
type DetailView struct {
	*catalog.MovieDetail
	PosterURL   string     `json:"posterUrl"`
	BackdropURL string     `json:"backdropUrl"`
	TrailerURL  string     `json:"trailerUrl,omitempty"`
	RuntimeText string     `json:"runtimeText"`
	ReleaseText string     `json:"releaseText"`
	Year        string     `json:"year"`
	Rating      string     `json:"rating"`
	TopCast     []CastCard `json:"topCast"`
	Favorite    bool       `json:"isFavorite"`
}

// Cards builds display cards for movies, marking the ones in favorites.
func (s *Service) Cards(images catalog.Images, movies []catalog.Movie) []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make([]Card, 0, len(movies))
	for _, m := range movies {
		cards = append(cards, Card{
			Movie:     m,
			PosterURL: images.PosterURL(m.PosterPath, ""),
			Year:      catalog.YearFromDate(m.ReleaseDate),
			Rating:    catalog.FormatRating(m.VoteAverage),
			Favorite:  s.isFavoriteLocked(m.ID),
		})
	}
	return cards
}

// NewDetailView resolves the display fields of d.
func NewDetailView(d *catalog.MovieDetail, images catalog.Images, favorite bool) DetailView {
	trailer, _ := d.TrailerURL()

	cast := d.TopCast(catalog.TopCastSize)
	cards := make([]CastCard, 0, len(cast))
	for _, c := range cast {
		url, _ := images.ProfileURL(c.ProfilePath, "")
		cards = append(cards, CastCard{CastMember: c, ProfileURL: url})
	}

	return DetailView{
		MovieDetail: d,
		PosterURL:   images.PosterURL(d.PosterPath, ""),
		BackdropURL: images.BackdropURL(d.BackdropPath, ""),
		TrailerURL:  trailer,
		RuntimeText: catalog.FormatRuntime(d.Runtime),
		ReleaseText: catalog.FormatReleaseDate(d.ReleaseDate),
		Year:        catalog.YearFromDate(d.ReleaseDate),
		Rating:      catalog.FormatRating(d.VoteAverage),
		TopCast:     cards,
		Favorite:    favorite,
	}
}
