package backend

import (
	"context"

	"compras/internal/feedback"
)

// Store is the persistence a feedback backend provides.
type Store interface {
	feedback.Store
	Close() error
}

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the store and its cleanup function
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates feedback stores based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDSN string
}

// Type names a feedback backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
