// Package movies owns the catalog state: trending, search results, the current
// detail record, favorites, per-operation status and the committed search query.
package movies

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/catalog/tmdb"
	"github.com/moviedeck/moviedeck/internal/kvstore"
)

// Store keys owned by this package.
const (
	KeyFavorites       = "favorites"
	KeyLastSearchQuery = "lastSearchQuery"
)

// Broadcast event types.
const (
	EventTrending  = "movies:trending"
	EventSearch    = "movies:search"
	EventDetail    = "movies:detail"
	EventFavorites = "movies:favorites"
	EventQuery     = "movies:query"
	EventStatus    = "movies:status"
)

// Operation names a fetch that carries its own loading/error status.
type Operation string

const (
	OpTrending Operation = "trending"
	OpSearch   Operation = "search"
	OpDetail   Operation = "detail"
)

var operations = []Operation{OpTrending, OpSearch, OpDetail}

// Fallback messages for failures that carry no user-facing text of their own.
var fallbackMessages = map[Operation]string{
	OpTrending: tmdb.MsgTrendingFailed,
	OpSearch:   tmdb.MsgSearchFailed,
	OpDetail:   tmdb.MsgDetailFailed,
}

// Catalog is the read-only movie catalog the service fetches from.
type Catalog interface {
	FetchTrending(ctx context.Context) ([]catalog.Movie, error)
	Search(ctx context.Context, query string) ([]catalog.Movie, error)
	FetchDetail(ctx context.Context, id int) (*catalog.MovieDetail, error)
}

// Broadcaster pushes state changes to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Status is the loading/error pair of one operation.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Service holds the catalog state. All methods are safe for concurrent use;
// network calls run outside the lock.
type Service struct {
	catalog     Catalog
	store       kvstore.Store
	logger      zerolog.Logger
	broadcaster Broadcaster

	// emitMu is taken before mu and held until a change's events are sent.
	emitMu sync.Mutex

	mu            sync.RWMutex
	trending      []catalog.Movie
	searchResults []catalog.Movie
	current       *catalog.MovieDetail
	favorites     []catalog.Movie
	query         string
	status        map[Operation]Status
	lastError     string
	searchSeq     uint64
	revision      uint64
}

// NewService creates a catalog state service. Call Restore to load persisted
// favorites and the last search query.
func NewService(cat Catalog, store kvstore.Store, logger zerolog.Logger) *Service {
	return &Service{
		catalog: cat,
		store:   store,
		logger:  logger.With().Str("component", "movies").Logger(),
		status:  make(map[Operation]Status, len(operations)),
	}
}

// SetBroadcaster sets the broadcaster for state change events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Restore loads favorites and the last committed search query from the store.
// A corrupt favorites value is removed and treated as an empty list.
func (s *Service) Restore(ctx context.Context) error {
	var favorites []catalog.Movie
	found, err := kvstore.LoadJSON(ctx, s.store, KeyFavorites, &favorites)
	switch {
	case errors.Is(err, kvstore.ErrCorrupt):
		s.logger.Warn().Err(err).Msg("Discarding corrupt favorites")
		if err := s.store.Remove(ctx, KeyFavorites); err != nil {
			return err
		}
		favorites = nil
	case err != nil:
		return err
	case !found:
		s.logger.Debug().Msg("No stored favorites")
	}

	query, _, err := s.store.Get(ctx, KeyLastSearchQuery)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.favorites = dedupeByID(favorites)
	s.query = query
	s.mu.Unlock()

	s.logger.Info().
		Int("favorites", len(favorites)).
		Str("query", query).
		Msg("Restored catalog state")
	return nil
}

// Snapshot is the read model of the catalog state.
type Snapshot struct {
	TrendingMovies []catalog.Movie      `json:"trendingMovies"`
	SearchResults  []catalog.Movie      `json:"searchResults"`
	CurrentMovie   *catalog.MovieDetail `json:"currentMovie"`
	Favorites      []catalog.Movie      `json:"favorites"`
	SearchQuery    string               `json:"searchQuery"`
	Loading        bool                 `json:"loading"`
	Error          string               `json:"error,omitempty"`
	Operations     map[Operation]Status `json:"operations"`
	Revision       uint64               `json:"revision"`
}

// StatusSnapshot is the combined and per-operation status. Revision grows
// with every status change, so a client can drop a snapshot older than the
// one it holds.
type StatusSnapshot struct {
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`
	Operations map[Operation]Status `json:"operations"`
	Revision   uint64               `json:"revision"`
}

// SearchState is the committed query and the results shown for it.
type SearchState struct {
	Query   string          `json:"query"`
	Results []catalog.Movie `json:"results"`
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.statusLocked()
	return Snapshot{
		TrendingMovies: slices.Clone(s.trending),
		SearchResults:  slices.Clone(s.searchResults),
		CurrentMovie:   s.current,
		Favorites:      slices.Clone(s.favorites),
		SearchQuery:    s.query,
		Loading:        st.Loading,
		Error:          st.Error,
		Operations:     st.Operations,
		Revision:       st.Revision,
	}
}

// Status returns the combined status and each operation's own status.
func (s *Service) Status() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

// Search returns the committed query and current results.
func (s *Service) Search() SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SearchState{Query: s.query, Results: slices.Clone(s.searchResults)}
}

// Trending returns the current trending list.
func (s *Service) Trending() []catalog.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.trending)
}

// Current returns the current detail record, or nil when none is loaded.
func (s *Service) Current() *catalog.MovieDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) statusLocked() StatusSnapshot {
	ops := make(map[Operation]Status, len(operations))
	loading := false
	for _, op := range operations {
		st := s.status[op]
		ops[op] = st
		loading = loading || st.Loading
	}
	return StatusSnapshot{Loading: loading, Error: s.lastError, Operations: ops, Revision: s.revision}
}

// beginLocked moves op to loading and clears the visible error.
func (s *Service) beginLocked(op Operation) {
	s.status[op] = Status{Loading: true}
	s.lastError = ""
	s.revision++
}

// failLocked records a failed op. The target data is left untouched.
func (s *Service) failLocked(op Operation, err error) {
	msg := fallbackMessages[op]
	var opErr *tmdb.OperationError
	if errors.As(err, &opErr) && opErr.Message != "" {
		msg = opErr.Message
	}
	s.status[op] = Status{Error: msg}
	s.lastError = msg
	s.revision++
}

func (s *Service) succeedLocked(op Operation) {
	s.status[op] = Status{}
	s.revision++
}

type event struct {
	msgType string
	payload any
}

func statusEvent(st StatusSnapshot) event {
	return event{msgType: EventStatus, payload: st}
}

// update runs fn under the state lock and broadcasts the events it returns.
// Events from concurrent updates leave in the order their state was taken.
func (s *Service) update(fn func() []event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	events := fn()
	b := s.broadcaster
	s.mu.Unlock()

	if b == nil {
		return
	}
	for _, e := range events {
		b.Broadcast(e.msgType, e.payload)
	}
}

func dedupeByID(movies []catalog.Movie) []catalog.Movie {
	if len(movies) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(movies))
	out := make([]catalog.Movie, 0, len(movies))
	for _, m := range movies {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
