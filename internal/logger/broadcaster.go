package logger

import (
	"encoding/json"
	"sync"
)

const (
	defaultBufferSize = 500

	// EventLogEntry is the hub message type for streamed log lines.
	EventLogEntry = "logs:entry"
)

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// LogEntry represents a parsed log entry for streaming.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBroadcaster is an io.Writer that buffers zerolog JSON lines and
// forwards them to a hub.
type LogBroadcaster struct {
	hub    Broadcaster
	buffer *RingBuffer[LogEntry]
	mu     sync.RWMutex
}

// NewLogBroadcaster creates a new log broadcaster. The hub may be nil and
// attached later with SetHub.
func NewLogBroadcaster(hub Broadcaster, bufferSize int) *LogBroadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &LogBroadcaster{
		hub:    hub,
		buffer: NewRingBuffer[LogEntry](bufferSize),
	}
}

// SetHub sets the broadcaster hub for sending messages.
func (b *LogBroadcaster) SetHub(hub Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub = hub
}

// Write implements io.Writer.
func (b *LogBroadcaster) Write(p []byte) (int, error) {
	entry, err := parseLogEntry(p)
	if err != nil {
		return len(p), nil //nolint:nilerr // malformed lines are dropped
	}

	b.buffer.Push(entry)

	b.mu.RLock()
	hub := b.hub
	b.mu.RUnlock()

	if hub != nil {
		hub.Broadcast(EventLogEntry, entry)
	}

	return len(p), nil
}

// GetRecentLogs returns all buffered log entries.
func (b *LogBroadcaster) GetRecentLogs() []LogEntry {
	return b.buffer.GetAll()
}

func parseLogEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{Fields: make(map[string]any)}

	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}
	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}

	for k, v := range raw {
		entry.Fields[k] = v
	}
	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}

	return entry, nil
}
