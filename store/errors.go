package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnavailable is matched by every error caused by the triple store failing to answer.
var ErrUnavailable = errors.New("triple store unavailable")

// QueryError reports a failed query of a given shape.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnavailable) hold for any QueryError.
func (e *QueryError) Is(target error) bool {
	return target == ErrUnavailable
}

func queryError(query string, err error) error {
	return &QueryError{Query: query, Err: err}
}
