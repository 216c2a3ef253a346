// Package controller holds the stateful façades the presentation layer
// consumes: each owns loading/error/pagination state for one resource
// family and calls the domain services underneath.
//
// Controllers are safe for concurrent use. Overlapping calls against the
// same controller are fenced with a per-controller sequence number: a
// response that settles after a newer request has started is discarded
// instead of overwriting fresher state. Close cancels in-flight requests.
package controller

import (
	"errors"

	"github.com/mbertrand/plume/internal/apierror"
)

// Pagination is the position metadata kept alongside a fetched page.
type Pagination struct {
	Page          int
	Size          int
	TotalPages    int
	TotalElements int64
	First         bool
	Last          bool
}

// errMessage turns a service failure into the display string stored in
// controller state.
func errMessage(err error) string {
	var ae *apierror.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
