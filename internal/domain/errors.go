package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a lookup has no rows.
	ErrNotFound = errors.New("not found")
	// ErrNoBackend is returned when no generation backend is registered for a provider.
	ErrNoBackend = errors.New("generation backend is not registered")
	// ErrUnknownOutlet is returned when no publisher is registered for an outlet.
	ErrUnknownOutlet = errors.New("publisher is not registered")
)

// DiscoveryError reports a single failing source. It is never fatal.
type DiscoveryError struct {
	Source string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery %s: %v", e.Source, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// GenerationError reports a failed generation call. No content is produced.
type GenerationError struct {
	Provider string
	Category Category
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s with %s: %v", e.Category, e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishError reports a failed submission to an outlet.
type PublishError struct {
	Outlet string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Outlet, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// PersistenceError reports that the durable store is unavailable. It aborts
// the current cycle.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigValidationError lists every invalid setting found at startup.
type ConfigValidationError struct {
	Problems []string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Problems)
}
