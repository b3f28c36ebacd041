package nodeedit

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is returned when the current document text is not JSON.
var ErrInvalidDocument = errors.New("nodeedit: current document is not valid JSON")

// ParseError reports edited text that is not well-formed JSON. The document
// is never touched when it is returned.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nodeedit: edited text is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PathResolutionError reports a path that no longer resolves against the
// document. Depth is the index of the offending segment.
type PathResolutionError struct {
	Path   Path
	Depth  int
	Reason string
}

func (e *PathResolutionError) Error() string {
	if e.Depth < 0 || e.Depth >= len(e.Path) {
		return fmt.Sprintf("nodeedit: path %s does not resolve: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("nodeedit: path %s does not resolve at %s: %s", e.Path, e.Path[:e.Depth+1], e.Reason)
}

func unresolved(path Path, depth int, format string, args ...any) error {
	return &PathResolutionError{Path: path, Depth: depth, Reason: fmt.Sprintf(format, args...)}
}
