package config

// EmbeddedTMDBKey is injected at build time via ldflags and used when neither
// the config file nor the environment provides a catalog API key.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/moviedeck/moviedeck/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string
