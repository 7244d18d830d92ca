package reframe

import "fmt"

// DecodeError reports a source frame that could not be decoded. It aborts the pass.
type DecodeError struct {
	Frame int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %d: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError reports an output file that could not be finalized. Any partial
// file at Path must be treated as invalid.
type RenderError struct {
	Path  string
	Frame int
	Err   error
}

func (e *RenderError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("render %s at frame %d: %v", e.Path, e.Frame, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
