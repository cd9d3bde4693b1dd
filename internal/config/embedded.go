package config

// Server-wide TMDB key injected at build time via ldflags. It is used when
// neither the config file, the environment, nor the requesting user supplies one.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/baing/baing/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string
