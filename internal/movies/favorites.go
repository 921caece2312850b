package movies

import (
	"context"
	"slices"

	"github.com/moviedeck/moviedeck/internal/catalog"
	"github.com/moviedeck/moviedeck/internal/kvstore"
)

// AddToFavorites appends movie unless a favorite with the same id exists.
// The full list is persisted before the in-memory list changes; if the
// write fails nothing changes. Reports whether the movie was added.
func (s *Service) AddToFavorites(ctx context.Context, movie catalog.Movie) (bool, error) {
	var added bool
	var err error
	s.update(func() []event {
		if s.isFavoriteLocked(movie.ID) {
			return nil
		}

		next := make([]catalog.Movie, 0, len(s.favorites)+1)
		next = append(next, s.favorites...)
		next = append(next, movie)

		if err = kvstore.SaveJSON(ctx, s.store, KeyFavorites, next); err != nil {
			return nil
		}
		s.favorites = next
		added = true
		return []event{{msgType: EventFavorites, payload: slices.Clone(next)}}
	})

	if err != nil {
		s.logger.Error().Err(err).Int("id", movie.ID).Msg("Failed to persist favorites")
		return false, err
	}
	if added {
		s.logger.Info().Int("id", movie.ID).Str("title", movie.Title).Msg("Added to favorites")
	}
	return added, nil
}

// RemoveFromFavorites removes every favorite with id and persists the list.
// Reports whether anything was removed.
func (s *Service) RemoveFromFavorites(ctx context.Context, id int) (bool, error) {
	var removed bool
	var err error
	s.update(func() []event {
		if !s.isFavoriteLocked(id) {
			return nil
		}

		next := make([]catalog.Movie, 0, len(s.favorites))
		for _, m := range s.favorites {
			if m.ID != id {
				next = append(next, m)
			}
		}

		if err = kvstore.SaveJSON(ctx, s.store, KeyFavorites, next); err != nil {
			return nil
		}
		s.favorites = next
		removed = true
		return []event{{msgType: EventFavorites, payload: slices.Clone(next)}}
	})

	if err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("Failed to persist favorites")
		return false, err
	}
	if removed {
		s.logger.Info().Int("id", id).Msg("Removed from favorites")
	}
	return removed, nil
}

// IsFavorite reports whether id is in the favorites list.
func (s *Service) IsFavorite(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isFavoriteLocked(id)
}

// Favorites returns the favorites in insertion order.
func (s *Service) Favorites() []catalog.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites)
}

func (s *Service) isFavoriteLocked(id int) bool {
	return slices.ContainsFunc(s.favorites, func(m catalog.Movie) bool {
		return m.ID == id
	})
}
