package core

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when text ingestion receives only whitespace.
var ErrEmptyInput = errors.New("please enter some JSONL text")

// ErrNoData is returned by export when the active view set is empty.
var ErrNoData = errors.New("no data to export")

// IngestionIOError reports a failed read of an ingestion source.
type IngestionIOError struct {
	Source string
	Err    error
}

func (e *IngestionIOError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Source, e.Err)
}

func (e *IngestionIOError) Unwrap() error {
	return e.Err
}

// InvalidRowReferenceError reports a row action outside the active view set.
type InvalidRowReferenceError struct {
	Index int
	Len   int
}

func (e *InvalidRowReferenceError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("row %d does not exist: no records in view", e.Index)
	}
	return fmt.Sprintf("row %d does not exist: view has rows 0-%d", e.Index, e.Len-1)
}
