package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/logger"
)

// LogsProvider provides access to log data.
type LogsProvider interface {
	GetRecentLogs() []logger.LogEntry
	GetLogFilePath() string
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
}

// NewLogsHandlers creates a new logs handlers instance.
func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns the entries held in the in-memory ring buffer,
// oldest first. Optional query parameters narrow the list:
//
//	component  only entries logged by that component, e.g. "movies"
//	level      only entries at that level or above
//	limit      only the most recent n entries
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	minLevel := zerolog.TraceLevel
	if raw := c.QueryParam("level"); raw != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil || lvl == zerolog.NoLevel {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid level")
		}
		minLevel = lvl
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	logs := filterLogs(h.provider.GetRecentLogs(), c.QueryParam("component"), minLevel, limit)
	return c.JSON(http.StatusOK, logs)
}

func filterLogs(entries []logger.LogEntry, component string, minLevel zerolog.Level, limit int) []logger.LogEntry {
	out := make([]logger.LogEntry, 0, len(entries))
	for _, e := range entries {
		if component != "" && e.Component != component {
			continue
		}
		// Entries with an unknown level are kept.
		if lvl, err := zerolog.ParseLevel(e.Level); err == nil && lvl != zerolog.NoLevel && lvl < minLevel {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// DownloadLogFile serves the current log file. It is 404 when logging goes
// to the console only.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, "moviedeck.log")
}
