// Package config handles application configuration and setup
package config

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/texpool"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreatePool uploads the placeholder texture to the backend and creates an empty
// texture pool that uses it.
func CreatePool(logger *log.Logger, backend gpu.Backend) (*texpool.Pool, error) {
	placeholder, err := gpu.UploadPlaceholder(backend)
	if err != nil {
		return nil, fmt.Errorf("uploading placeholder texture: %w", err)
	}
	return texpool.New(logger, texpool.Config{Placeholder: placeholder}), nil
}
