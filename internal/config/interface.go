package config

import "context"

// Loader is the interface for a format-specific stat sheet loader.
type Loader interface {
	// Load reads every sheet found under paths and merges them into one Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
