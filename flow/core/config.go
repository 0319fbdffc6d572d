package core

import (
	"context"
)

// DefaultChunkSize is the read size used by reader-backed sources when no
// ReadConfig is present on the context.
const DefaultChunkSize = 32 * 1024

// ReadConfig tunes reader-backed sources.
type ReadConfig struct {
	// ChunkSize is the maximum size of one chunk read from the underlying
	// reader. Non-positive values fall back to DefaultChunkSize.
	ChunkSize int
}

// configKey is a typed context key for config injection.
// Each config type gets its own unique key.
type configKey[C any] struct{}

// WithConfig attaches a configuration value to the context.
// The config is keyed by its type, so only one instance of each config type
// can be stored. Later calls with the same type will override earlier ones.
//
// Example:
//
//	ctx := core.WithConfig(ctx, core.ReadConfig{ChunkSize: 4096})
func WithConfig[C any](ctx context.Context, cfg C) context.Context {
	return context.WithValue(ctx, configKey[C]{}, cfg)
}

// GetConfig retrieves a configuration of type C from the context.
// Returns the config and true if found, or zero value and false if not present.
func GetConfig[C any](ctx context.Context) (C, bool) {
	if cfg, ok := ctx.Value(configKey[C]{}).(C); ok {
		return cfg, true
	}
	return *new(C), false
}

// ChunkSize returns the configured chunk size for ctx.
func ChunkSize(ctx context.Context) int {
	if cfg, ok := GetConfig[ReadConfig](ctx); ok && cfg.ChunkSize > 0 {
		return cfg.ChunkSize
	}
	return DefaultChunkSize
}
