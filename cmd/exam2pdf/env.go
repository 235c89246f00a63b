package main

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/alnah/go-exam2pdf/internal/examapi"
)

// Fetcher retrieves the raw questions payload.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Fetcher = (*examapi.Client)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	// Context is the parent of every command context. Nil means Background.
	Context func() context.Context
	// NewFetcher builds the API client from resolved settings.
	NewFetcher func(cfg examapi.Config) (Fetcher, error)
	// Logger overrides the logger built from flags (tests).
	Logger *zap.Logger
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Context: context.Background,
		NewFetcher: func(cfg examapi.Config) (Fetcher, error) {
			client, err := examapi.NewClient(cfg)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

func (e *Environment) context() context.Context {
	if e.Context == nil {
		return context.Background()
	}
	return e.Context()
}
