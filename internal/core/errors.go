package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("file has no header row")
	ErrInvalidAmount = errors.New("invalid amount")
)

// DataLoadError reports that the dataset could not be read or parsed.
// The dashboard cannot render without a dataset.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load dataset %q: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// ExportError reports a spreadsheet serialization failure.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export spreadsheet: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ExplorerSpecError reports a malformed exploration specification.
type ExplorerSpecError struct {
	Reason string
	Err    error
}

func (e *ExplorerSpecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid exploration spec: %s: %v", e.Reason, e.Err)
	}
	return "invalid exploration spec: " + e.Reason
}

func (e *ExplorerSpecError) Unwrap() error { return e.Err }
