package movies

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/catalog/tmdb"
)

// FetchTrending replaces the trending list with a fresh copy from the catalog.
// On failure the previous list is kept and the status carries the message.
func (s *Service) FetchTrending(ctx context.Context) error {
	s.update(func() []event {
		s.beginLocked(OpTrending)
		return []event{statusEvent(s.statusLocked())}
	})

	movies, err := s.catalog.FetchTrending(ctx)

	s.update(func() []event {
		if err != nil {
			s.failLocked(OpTrending, err)
			return []event{statusEvent(s.statusLocked())}
		}
		s.trending = movies
		s.succeedLocked(OpTrending)
		return []event{
			{msgType: EventTrending, payload: slices.Clone(movies)},
			statusEvent(s.statusLocked()),
		}
	})

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch trending movies")
		return err
	}
	s.logger.Debug().Int("count", len(movies)).Msg("Trending movies updated")
	return nil
}

// EnsureTrending fetches trending only when the list is empty and no fetch is
// already running.
func (s *Service) EnsureTrending(ctx context.Context) error {
	s.mu.RLock()
	skip := len(s.trending) > 0 || s.status[OpTrending].Loading
	s.mu.RUnlock()
	if skip {
		return nil
	}
	return s.FetchTrending(ctx)
}

// SearchByQuery runs a catalog search for query. A blank query clears the
// results without a network call and supersedes any search in flight.
//
// Each search takes the next sequence number; a response is applied only if
// no newer search was started while it was in flight. Superseded responses
// are dropped without touching results or status.
func (s *Service) SearchByQuery(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		s.update(func() []event {
			s.searchSeq++
			s.searchResults = nil
			s.succeedLocked(OpSearch)
			return []event{
				{msgType: EventSearch, payload: SearchState{Query: s.query, Results: nil}},
				statusEvent(s.statusLocked()),
			}
		})
		return nil
	}

	var seq uint64
	s.update(func() []event {
		s.searchSeq++
		seq = s.searchSeq
		s.beginLocked(OpSearch)
		return []event{statusEvent(s.statusLocked())}
	})

	results, err := s.catalog.Search(ctx, query)

	var stale bool
	var latest uint64
	s.update(func() []event {
		if seq != s.searchSeq {
			stale, latest = true, s.searchSeq
			return nil
		}
		if err != nil {
			s.failLocked(OpSearch, err)
			return []event{statusEvent(s.statusLocked())}
		}
		s.searchResults = results
		s.succeedLocked(OpSearch)
		return []event{
			{msgType: EventSearch, payload: SearchState{Query: s.query, Results: slices.Clone(results)}},
			statusEvent(s.statusLocked()),
		}
	})

	switch {
	case stale:
		s.logger.Debug().
			Str("query", query).
			Uint64("seq", seq).
			Uint64("latest", latest).
			Msg("Discarding stale search response")
		return nil
	case err != nil:
		s.logger.Error().Err(err).Str("query", query).Msg("Movie search failed")
		return err
	}
	s.logger.Debug().Str("query", query).Int("count", len(results)).Msg("Search results updated")
	return nil
}

// SetSearchQuery commits query as the active search query. Non-empty queries
// are persisted as the last search query; an empty query is not written.
func (s *Service) SetSearchQuery(ctx context.Context, query string) error {
	if query != "" {
		if err := s.store.Set(ctx, KeyLastSearchQuery, query); err != nil {
			s.logger.Error().Err(err).Msg("Failed to persist last search query")
			return err
		}
	}

	s.update(func() []event {
		s.query = query
		return []event{{msgType: EventQuery, payload: map[string]string{"query": query}}}
	})
	return nil
}

// FetchByID loads the detail record for id, replacing the current one. An id
// the catalog does not know leaves no current record and no error.
func (s *Service) FetchByID(ctx context.Context, id int) error {
	s.update(func() []event {
		s.beginLocked(OpDetail)
		return []event{statusEvent(s.statusLocked())}
	})

	detail, err := s.catalog.FetchDetail(ctx, id)
	notFound := errors.Is(err, tmdb.ErrNotFound)

	s.update(func() []event {
		switch {
		case notFound:
			s.current = nil
		case err != nil:
			s.failLocked(OpDetail, err)
			return []event{statusEvent(s.statusLocked())}
		default:
			s.current = detail
		}
		s.succeedLocked(OpDetail)
		return []event{
			{msgType: EventDetail, payload: s.current},
			statusEvent(s.statusLocked()),
		}
	})

	switch {
	case notFound:
		s.logger.Info().Int("id", id).Msg("Movie not found in catalog")
	case err != nil:
		s.logger.Error().Err(err).Int("id", id).Msg("Failed to fetch movie details")
		return err
	}
	return nil
}

// ClearCurrent discards the current detail record.
func (s *Service) ClearCurrent() {
	s.update(func() []event {
		if s.current == nil {
			return nil
		}
		s.current = nil
		return []event{{msgType: EventDetail, payload: (*catalog.MovieDetail)(nil)}}
	})
}
