package dataset

import (
	"context"

	"compras/internal/core"
)

// FileSource serves the table stored at a fixed path.
type FileSource struct {
	loader *Loader
	path   string
}

func NewFileSource(loader *Loader, path string) *FileSource {
	return &FileSource{loader: loader, path: path}
}

// Table returns the current table. It is re-read only when the file changes.
func (s *FileSource) Table(ctx context.Context) (*core.Table, error) {
	return s.loader.Load(ctx, s.path)
}

// Path returns the configured dataset path.
func (s *FileSource) Path() string {
	return s.path
}

// StaticSource serves an in-memory table. Used by tests and the export CLI.
type StaticSource struct {
	T *core.Table
}

func (s StaticSource) Table(context.Context) (*core.Table, error) {
	if s.T == nil {
		return &core.Table{Columns: core.RequiredColumns}, nil
	}
	return s.T, nil
}
