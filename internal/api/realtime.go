package api

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/moviedeck/moviedeck/internal/search"
	"github.com/moviedeck/moviedeck/internal/websocket"
)

// Search box messages exchanged with WebSocket clients.
const (
	MsgSearchInput  = "search:input"
	MsgSearchSubmit = "search:submit"
	MsgSearchClear  = "search:clear"
	MsgNavigate     = "navigate"
)

const (
	searchTimeout = 30 * time.Second
	resultsRoute  = "/"
)

type searchInputPayload struct {
	Query string `json:"query"`
}

type navigatePayload struct {
	Route string `json:"route"`
}

// clientSearch commits one client's search box.
type clientSearch struct {
	server *Server
	client *websocket.Client
}

// Commit runs when the box has been quiet for the debounce period or on
// submit. A non-blank query also sends the client to the results route.
func (h *clientSearch) Commit(query string) {
	s := h.server
	if !s.session.IsAuthenticated() {
		s.logger.Debug().Str("client", h.client.ID).Msg("Ignoring search from signed-out client")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	if err := s.commitQuery(ctx, query); err != nil {
		s.logger.Error().Err(err).Str("client", h.client.ID).Msg("Failed to commit search query")
		return
	}
	if strings.TrimSpace(query) == "" {
		return
	}

	h.client.Send(MsgNavigate, navigatePayload{Route: resultsRoute})
	// Failures are already on the read model.
	_ = s.movies.SearchByQuery(ctx, query)
}

// Clear resets the committed query. A signed-out client only gets its box
// put back to the query that is still committed.
func (h *clientSearch) Clear() {
	s := h.server
	if !s.session.IsAuthenticated() {
		s.logger.Debug().Str("client", h.client.ID).Msg("Ignoring search clear from signed-out client")
		query := s.movies.Search().Query
		if in := s.searchInput(h.client); in != nil {
			in.Sync(query)
		}
		h.client.Send(MsgSearchInput, searchInputPayload{Query: query})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	if err := s.resetSearch(ctx); err != nil {
		s.logger.Error().Err(err).Str("client", h.client.ID).Msg("Failed to clear search")
	}
}

// setupRealtime gives every WebSocket client its own debounced search box.
func (s *Server) setupRealtime() {
	if s.hub == nil {
		return
	}

	s.hub.OnConnect(s.attachSearchInput)
	s.hub.OnDisconnect(s.detachSearchInput)

	s.hub.Handle(MsgSearchInput, func(c *websocket.Client, payload json.RawMessage) {
		var p searchInputPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			s.logger.Debug().Err(err).Str("client", c.ID).Msg("Ignoring malformed search input")
			return
		}
		if in := s.searchInput(c); in != nil {
			in.Change(p.Query)
		}
	})

	// Submit and clear reach the catalog or the store, so they run off the
	// client's read goroutine.
	s.hub.Handle(MsgSearchSubmit, func(c *websocket.Client, _ json.RawMessage) {
		if in := s.searchInput(c); in != nil {
			go in.Submit()
		}
	})
	s.hub.Handle(MsgSearchClear, func(c *websocket.Client, _ json.RawMessage) {
		if in := s.searchInput(c); in != nil {
			go in.Clear()
		}
	})
}

func (s *Server) attachSearchInput(c *websocket.Client) {
	in := search.NewInput(s.clock, s.cfg.Search.Debounce(), &clientSearch{server: s, client: c})
	query := s.movies.Search().Query
	in.Sync(query)

	s.inputsMu.Lock()
	s.inputs[c] = in
	s.inputsMu.Unlock()

	c.Send(MsgSearchInput, searchInputPayload{Query: query})
}

func (s *Server) detachSearchInput(c *websocket.Client) {
	s.inputsMu.Lock()
	in, ok := s.inputs[c]
	delete(s.inputs, c)
	s.inputsMu.Unlock()

	if ok {
		in.Close()
	}
}

func (s *Server) searchInput(c *websocket.Client) *search.Input {
	s.inputsMu.Lock()
	defer s.inputsMu.Unlock()
	return s.inputs[c]
}

// syncSearchInputs moves every search box that is not mid-typing to query and
// echoes the resulting value to its client.
func (s *Server) syncSearchInputs(query string) {
	s.inputsMu.Lock()
	clients := slices.Collect(maps.Keys(s.inputs))
	inputs := make([]*search.Input, 0, len(clients))
	for _, c := range clients {
		inputs = append(inputs, s.inputs[c])
	}
	s.inputsMu.Unlock()

	for i, in := range inputs {
		if in.Pending() {
			continue
		}
		in.Sync(query)
		clients[i].Send(MsgSearchInput, searchInputPayload{Query: in.Value()})
	}
}
