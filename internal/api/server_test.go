package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/catalog/tmdb"
	"github.com/moviedeck/moviedeck/internal/config"
	"github.com/moviedeck/moviedeck/internal/kvstore"
	"github.com/moviedeck/moviedeck/internal/logger"
	"github.com/moviedeck/moviedeck/internal/movies"
	"github.com/moviedeck/moviedeck/internal/scheduler"
	"github.com/moviedeck/moviedeck/internal/search"
	"github.com/moviedeck/moviedeck/internal/session"
	"github.com/moviedeck/moviedeck/internal/theme"
	"github.com/moviedeck/moviedeck/internal/websocket"
)

type fakeCatalog struct {
	mu          sync.Mutex
	trending    []catalog.Movie
	trendingErr error
	results     map[string][]catalog.Movie
	details     map[int]*catalog.MovieDetail
	detailErr   error
	searches    []string
}

func (f *fakeCatalog) FetchTrending(context.Context) ([]catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trendingErr != nil {
		return nil, f.trendingErr
	}
	return f.trending, nil
}

func (f *fakeCatalog) Search(_ context.Context, query string) ([]catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	return f.results[query], nil
}

func (f *fakeCatalog) FetchDetail(_ context.Context, id int) (*catalog.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	d, ok := f.details[id]
	if !ok {
		return nil, tmdb.ErrNotFound
	}
	return d, nil
}

func (f *fakeCatalog) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

type failingStore struct {
	*kvstore.Memory
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Memory.Set(ctx, key, value)
}

type fakeLogs struct{}

func (fakeLogs) GetRecentLogs() []logger.LogEntry {
	return []logger.LogEntry{
		{Level: "debug", Component: "movies", Message: "Trending movies updated"},
		{Level: "info", Component: "session", Message: "User signed in"},
		{Level: "error", Component: "movies", Message: "Movie search failed"},
		{Level: "warn", Component: "theme", Message: "Unrecognized stored dark mode value, using light mode"},
	}
}

func (fakeLogs) GetLogFilePath() string { return "" }

type fakeTasks struct{}

func (fakeTasks) ListTasks() []scheduler.TaskInfo {
	return []scheduler.TaskInfo{{ID: "trending-refresh", Name: "Trending Refresh"}}
}

func (fakeTasks) GetTask(id string) (*scheduler.TaskInfo, error) {
	if id != "trending-refresh" {
		return nil, scheduler.ErrTaskNotFound
	}
	return &scheduler.TaskInfo{ID: id}, nil
}

func (fakeTasks) RunNow(id string) error {
	switch id {
	case "trending-refresh":
		return nil
	case "busy":
		return scheduler.ErrTaskRunning
	default:
		return scheduler.ErrTaskNotFound
	}
}

type testServer struct {
	*Server
	catalog *fakeCatalog
	store   *failingStore
	clock   *clockwork.FakeClock
}

func movie(id int, title string) catalog.Movie {
	return catalog.Movie{ID: id, Title: title, ReleaseDate: "1999-03-31", VoteAverage: 8.2}
}

func setupTestServer(t *testing.T, hub *websocket.Hub) *testServer {
	t.Helper()

	cat := &fakeCatalog{
		trending: []catalog.Movie{movie(603, "The Matrix"), movie(604, "The Matrix Reloaded")},
		results:  map[string][]catalog.Movie{"matrix": {movie(603, "The Matrix")}},
		details: map[int]*catalog.MovieDetail{
			603: {
				Movie: movie(603, "The Matrix"),
				Videos: &catalog.Videos{Results: []catalog.Video{
					{Key: "vKQi3bBA1y8", Site: "YouTube", Type: "Trailer"},
				}},
			},
		},
	}
	store := &failingStore{Memory: kvstore.NewMemory()}
	clock := clockwork.NewFakeClock()
	cfg := config.Default()

	svc := Services{
		Movies:    movies.NewService(cat, store, zerolog.Nop()),
		Session:   session.NewService(store, clock, 0, zerolog.Nop()),
		Theme:     theme.NewService(store, false, zerolog.Nop()),
		Images:    catalog.Images{BaseURL: "https://image.tmdb.org/t/p"},
		Scheduler: fakeTasks{},
		Logs:      fakeLogs{},
	}

	server := NewServer(svc, hub, cfg, clock, zerolog.Nop())
	return &testServer{Server: server, catalog: cat, store: store, clock: clock}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) signIn(t *testing.T) {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"username":"neo","password":"whiterabbit"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["message"]
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestGetStatus(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string]any](t, rec)
	assert.Equal(t, config.Version, status["version"])
	assert.NotContains(t, status, "clients")
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := setupTestServer(t, nil)

	for _, path := range []string{"/api/v1/favorites", "/api/v1/movies/trending", "/api/v1/movies/603"} {
		rec := ts.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	ts.signIn(t)
	rec := ts.do(http.MethodGet, "/api/v1/favorites", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"missing fields", `{"username":"","password":""}`, http.StatusBadRequest, "Username and password are required"},
		{"short username", `{"username":"ab","password":"secret1"}`, http.StatusBadRequest, "Username must be at least 3 characters"},
		{"short password", `{"username":"neo","password":"12345"}`, http.StatusBadRequest, "Password must be at least 6 characters"},
		{"valid", `{"username":"neo","password":"123456"}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t, nil)

			rec := ts.do(http.MethodPost, "/api/v1/auth/login", tt.body)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorMessage(t, rec))
				return
			}
			snap := decode[session.Snapshot](t, rec)
			assert.True(t, snap.Authenticated)
			assert.Equal(t, "neo", snap.User.Username)
		})
	}
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	ts := setupTestServer(t, nil)

	for range 5 {
		rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"username":"neo","password":"123"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"username":"neo","password":"123456"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	ts.clock.Advance(time.Hour)
	rec = ts.do(http.MethodPost, "/api/v1/auth/login", `{"username":"neo","password":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[session.Snapshot](t, rec).Authenticated)

	_, found, err := ts.store.Get(context.Background(), session.KeyUser)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/v1/favorites", "").Code)
}

func TestGetState(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[StateResponse](t, rec)
	assert.False(t, state.Session.Authenticated)
	assert.Empty(t, state.Movies.TrendingMovies)

	ts.signIn(t)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/movies/trending", "").Code)

	state = decode[StateResponse](t, ts.do(http.MethodGet, "/api/v1/state", ""))
	assert.True(t, state.Session.Authenticated)
	assert.Len(t, state.Movies.TrendingMovies, 2)
}

func TestThemeToggle(t *testing.T) {
	ts := setupTestServer(t, nil)

	assert.False(t, decode[theme.Snapshot](t, ts.do(http.MethodGet, "/api/v1/theme", "")).DarkMode)

	rec := ts.do(http.MethodPost, "/api/v1/theme/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[theme.Snapshot](t, rec).DarkMode)

	v, found, err := ts.store.Get(context.Background(), theme.KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)
}

func TestThemeToggle_WriteFailure(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.store.fail = true

	rec := ts.do(http.MethodPost, "/api/v1/theme/toggle", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode[theme.Snapshot](t, ts.do(http.MethodGet, "/api/v1/theme", "")).DarkMode)
}

func TestTrending(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodGet, "/api/v1/movies/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[TrendingResponse](t, rec)
	require.Len(t, resp.Movies, 2)
	assert.Equal(t, "The Matrix", resp.Movies[0].Title)
	assert.Equal(t, "1999", resp.Movies[0].Year)
	assert.Equal(t, "8.2", resp.Movies[0].Rating)
	assert.Equal(t, catalog.PlaceholderPoster, resp.Movies[0].PosterURL)
	assert.False(t, resp.Status.Loading)
}

func TestTrending_CatalogFailure(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/movies/trending", "").Code)

	ts.catalog.trendingErr = &tmdb.OperationError{Op: "trending", Message: tmdb.MsgTrendingFailed, Err: errors.New("timeout")}

	rec := ts.do(http.MethodPost, "/api/v1/movies/trending/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, tmdb.MsgTrendingFailed, errorMessage(t, rec))

	// The list already loaded is kept and the read model carries the message.
	rec = ts.do(http.MethodGet, "/api/v1/movies/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TrendingResponse](t, rec)
	assert.Len(t, resp.Movies, 2)
	assert.Equal(t, tmdb.MsgTrendingFailed, resp.Status.Error)
}

func TestSubmitSearch(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodPost, "/api/v1/movies/search", `{"query":"matrix"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, "matrix", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 603, resp.Results[0].ID)

	v, _, err := ts.store.Get(context.Background(), movies.KeyLastSearchQuery)
	require.NoError(t, err)
	assert.Equal(t, "matrix", v)
}

func TestSubmitSearch_BlankRejected(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodPost, "/api/v1/movies/search", `{"query":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.catalog.searched())
}

func TestSetSearchQuery(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodPut, "/api/v1/movies/search/query", `{"query":"alien"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alien", decode[SearchResponse](t, rec).Query)
	assert.Empty(t, ts.catalog.searched())
}

func TestClearSearch(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/movies/search", `{"query":"matrix"}`).Code)

	rec := ts.do(http.MethodDelete, "/api/v1/movies/search", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	resp := decode[SearchResponse](t, ts.do(http.MethodGet, "/api/v1/movies/search", ""))
	assert.Empty(t, resp.Query)
	assert.Empty(t, resp.Results)

	// An empty query is never persisted over the last real one.
	v, _, err := ts.store.Get(context.Background(), movies.KeyLastSearchQuery)
	require.NoError(t, err)
	assert.Equal(t, "matrix", v)
}

func TestGetMovie(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	rec := ts.do(http.MethodGet, "/api/v1/movies/603", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decode[map[string]any](t, rec)
	assert.Equal(t, "The Matrix", view["title"])
	assert.Equal(t, "https://www.youtube.com/embed/vKQi3bBA1y8", view["trailerUrl"])
	assert.Equal(t, "N/A", view["runtimeText"])
	assert.Equal(t, false, view["isFavorite"])

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/v1/movies/current", "").Code)
	assert.Nil(t, ts.movies.Current())
}

func TestGetMovie_Errors(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/movies/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/movies/0", "").Code)

	rec := ts.do(http.MethodGet, "/api/v1/movies/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ts.movies.Status().Error)

	ts.catalog.detailErr = &tmdb.OperationError{Op: "detail", Message: tmdb.MsgDetailFailed, Err: errors.New("boom")}
	rec = ts.do(http.MethodGet, "/api/v1/movies/603", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, tmdb.MsgDetailFailed, errorMessage(t, rec))
}

func TestFavoritesCRUD(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	body := `{"id":603,"title":"The Matrix","poster_path":"/p.jpg","release_date":"1999-03-31","vote_average":8.2,"overview":""}`

	rec := ts.do(http.MethodPost, "/api/v1/favorites", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cards := decode[[]movies.Card](t, rec)
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Favorite)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p.jpg", cards[0].PosterURL)

	rec = ts.do(http.MethodPost, "/api/v1/favorites", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]movies.Card](t, rec), 1)

	status := decode[FavoriteStatus](t, ts.do(http.MethodGet, "/api/v1/favorites/603", ""))
	assert.True(t, status.Favorite)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/v1/favorites/603", "").Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/v1/favorites/603", "").Code)

	status = decode[FavoriteStatus](t, ts.do(http.MethodGet, "/api/v1/favorites/603", ""))
	assert.False(t, status.Favorite)
	assert.Empty(t, decode[[]movies.Card](t, ts.do(http.MethodGet, "/api/v1/favorites", "")))
}

func TestAddFavorite_Invalid(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/v1/favorites", `{"title":"No id"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/v1/favorites", `not json`).Code)
}

func TestAddFavorite_WriteFailure(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.signIn(t)
	ts.store.fail = true

	rec := ts.do(http.MethodPost, "/api/v1/favorites", `{"id":603,"title":"The Matrix"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, ts.movies.IsFavorite(603))
}

func TestSystemRoutes(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/system/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]logger.LogEntry](t, rec), 4)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v1/system/logs/download", "").Code)

	rec = ts.do(http.MethodGet, "/api/v1/system/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]scheduler.TaskInfo](t, rec), 1)

	assert.Equal(t, http.StatusAccepted, ts.do(http.MethodPost, "/api/v1/system/tasks/trending-refresh/run", "").Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, "/api/v1/system/tasks/busy/run", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/v1/system/tasks/missing/run", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v1/system/tasks/missing", "").Code)
}

func TestSystemLogs_Filters(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"component", "?component=movies", []string{"Trending movies updated", "Movie search failed"}},
		{"minimum level", "?level=warn", []string{"Movie search failed", "Unrecognized stored dark mode value, using light mode"}},
		{"component and level", "?component=movies&level=INFO", []string{"Movie search failed"}},
		{"most recent", "?limit=2", []string{"Movie search failed", "Unrecognized stored dark mode value, using light mode"}},
		{"no match", "?component=websocket", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/system/logs"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			got := []string{}
			for _, e := range decode[[]logger.LogEntry](t, rec) {
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/system/logs?level=loud", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/system/logs?limit=0", "").Code)
}

// wsMessage mirrors websocket.Message with a raw payload.
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readUntil(t *testing.T, conn *gorilla.Conn, msgType string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestRealtimeSearch_DebouncedCommit(t *testing.T) {
	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := setupTestServer(t, hub)
	ts.signIn(t)

	server := httptest.NewServer(ts.echo)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The search box is attached once the initial echo arrives.
	readUntil(t, conn, MsgSearchInput)

	for _, q := range []string{"m", "ma", "matrix"} {
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type":    MsgSearchInput,
			"payload": map[string]string{"query": q},
		}))
	}

	require.Eventually(t, func() bool {
		if err := ts.clock.BlockUntilContext(ctx, 1); err != nil {
			return false
		}
		in := ts.firstInput()
		return in != nil && in.Value() == "matrix"
	}, 3*time.Second, 10*time.Millisecond)

	ts.clock.Advance(ts.cfg.Search.Debounce())

	msg := readUntil(t, conn, MsgNavigate)
	assert.JSONEq(t, `{"route":"/"}`, string(msg.Payload))

	require.Eventually(t, func() bool {
		return len(ts.catalog.searched()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"matrix"}, ts.catalog.searched())
	assert.Equal(t, "matrix", ts.movies.Search().Query)
}

func TestRealtimeSearch_SubmitAndClear(t *testing.T) {
	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := setupTestServer(t, hub)
	ts.signIn(t)

	server := httptest.NewServer(ts.echo)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	readUntil(t, conn, MsgSearchInput)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    MsgSearchInput,
		"payload": map[string]string{"query": "matrix"},
	}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgSearchSubmit}))

	readUntil(t, conn, MsgNavigate)
	require.Eventually(t, func() bool {
		return ts.movies.Search().Query == "matrix" && len(ts.movies.Search().Results) == 1
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgSearchClear}))
	require.Eventually(t, func() bool {
		state := ts.movies.Search()
		return state.Query == "" && len(state.Results) == 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"matrix"}, ts.catalog.searched())
}

func TestRealtimeSearch_ClearIgnoredWhenSignedOut(t *testing.T) {
	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := setupTestServer(t, hub)
	ts.signIn(t)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/movies/search", `{"query":"matrix"}`).Code)

	server := httptest.NewServer(ts.echo)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readUntil(t, conn, MsgSearchInput)
	require.JSONEq(t, `{"query":"matrix"}`, string(msg.Payload))

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/auth/logout", "").Code)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgSearchClear}))

	msg = readUntil(t, conn, MsgSearchInput)
	assert.JSONEq(t, `{"query":"matrix"}`, string(msg.Payload))

	state := ts.movies.Search()
	assert.Equal(t, "matrix", state.Query)
	assert.Len(t, state.Results, 1)
	assert.Equal(t, "matrix", ts.firstInput().Value())
}

func (ts *testServer) firstInput() *search.Input {
	ts.inputsMu.Lock()
	defer ts.inputsMu.Unlock()
	for _, in := range ts.inputs {
		return in
	}
	return nil
}
