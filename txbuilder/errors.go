package txbuilder

import "fmt"

// BuildError reports a malformed or incomplete transaction description.
type BuildError struct {
	Field string
	Err   error
}

func (e *BuildError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("build transaction: %s", e.Field)
	}
	return fmt.Sprintf("build transaction: %s: %v", e.Field, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// SigningError reports unusable key material.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sign transaction: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }
