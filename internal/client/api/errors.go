package api

import "errors"

// ErrUnavailable means the server could not be reached at all, as opposed to
// an HTTP-level rejection.
var ErrUnavailable = errors.New("server unavailable")
