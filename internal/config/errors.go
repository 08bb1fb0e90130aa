package config

import "fmt"

// ParseError wraps a schema or file-read failure encountered while loading
// the configuration tree, with the offending file's path attached.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmptyResponseSetError is raised when a StaticHTTPConfig's responses carry
// zero total weight; fatal at load, per spec §7.
type EmptyResponseSetError struct {
	PayloadID string
}

func (e *EmptyResponseSetError) Error() string {
	return fmt.Sprintf("config: payload %q has no selectable responses (zero total weight)", e.PayloadID)
}
