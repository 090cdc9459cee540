package pipeline

import "fmt"

// FormatError means the API responded successfully but the body was not a
// JSON array of flat objects.
type FormatError struct {
	URL string
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error: %s: %s: %v", e.URL, e.Msg, e.Err)
	}
	return fmt.Sprintf("format error: %s: %s", e.URL, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError is a filesystem failure while producing the output CSV.
type IOError struct {
	Op   string // "mkdir", "encode", "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
