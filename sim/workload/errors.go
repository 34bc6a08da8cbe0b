package workload

import (
	"errors"
	"fmt"
)

var (
	// ErrIO matches load failures caused by reading the trace source.
	ErrIO = errors.New("trace I/O failure")
	// ErrParse matches load failures caused by malformed trace content.
	ErrParse = errors.New("trace parse failure")
)

// ErrorKind classifies a LoadError.
type ErrorKind string

const (
	KindIO    ErrorKind = "io"    // source could not be opened or read
	KindParse ErrorKind = "parse" // a numeric field did not parse
	KindShape ErrorKind = "shape" // a record had the wrong number of fields
)

// LoadError describes why a trace could not be loaded.
// Use errors.Is with ErrIO or ErrParse to branch on the failure class;
// shape errors are parse failures.
type LoadError struct {
	Kind  ErrorKind
	Path  string // empty when loading from a reader
	Line  int    // 1-based line number, 0 when not line-specific
	Field int    // 0-based field index for KindParse, -1 otherwise
	Err   error
}

func (e *LoadError) Error() string {
	where := e.Path
	if where == "" {
		where = "trace"
	}
	switch {
	case e.Line == 0:
		return fmt.Sprintf("%s: %s error: %v", where, e.Kind, e.Err)
	case e.Field >= 0:
		return fmt.Sprintf("%s:%d: field %d: %s error: %v", where, e.Line, e.Field, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s:%d: %s error: %v", where, e.Line, e.Kind, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrIO and ErrParse classes.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrParse:
		return e.Kind == KindParse || e.Kind == KindShape
	}
	return false
}
