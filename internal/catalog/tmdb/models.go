package tmdb

// MovieResult is a movie as returned by the list endpoints.
type MovieResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
	Adult        bool    `json:"adult"`
}

// ListResponse is the paged envelope of /trending and /search.
type ListResponse struct {
	Page         int           `json:"page"`
	TotalResults int           `json:"total_results"`
	TotalPages   int           `json:"total_pages"`
	Results      []MovieResult `json:"results"`
}

// MovieDetails is the /movie/{id} payload with videos and credits appended.
type MovieDetails struct {
	ID                  int              `json:"id"`
	Title               string           `json:"title"`
	Overview            string           `json:"overview"`
	Tagline             string           `json:"tagline"`
	Status              string           `json:"status"`
	PosterPath          *string          `json:"poster_path"`
	BackdropPath        *string          `json:"backdrop_path"`
	ReleaseDate         string           `json:"release_date"`
	VoteAverage         float64          `json:"vote_average"`
	Runtime             *int             `json:"runtime"`
	Genres              []GenreResult    `json:"genres"`
	ProductionCompanies []CompanyResult  `json:"production_companies"`
	Videos              *VideosResponse  `json:"videos"`
	Credits             *CreditsResponse `json:"credits"`
}

type GenreResult struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CompanyResult struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	LogoPath *string `json:"logo_path"`
}

type VideosResponse struct {
	Results []VideoResult `json:"results"`
}

type VideoResult struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type CreditsResponse struct {
	Cast []CastResult `json:"cast"`
}

type CastResult struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

// ErrorResponse is the body TMDB sends with non-200 statuses.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
