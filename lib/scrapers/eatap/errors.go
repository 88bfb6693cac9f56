package eatap

import (
	"errors"
	"fmt"
)

// ErrSessionExpired means the portal no longer accepts the loaded
// cookies. It cannot be recovered from here, fresh cookies have to be
// uploaded before any further calls can succeed.
var ErrSessionExpired = errors.New("eatap session has expired, upload fresh cookies")

// StatusError is a non-2xx response that was not a login redirect.
type StatusError struct {
	Code int
	Url  string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d from %s", e.Code, e.Url)
}

// ParseError means an expected structural anchor was missing from the
// portal's markup. This usually means the portal changed its templates
// and the extractors need re-tuning.
type ParseError struct {
	Url     string
	Missing string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("could not find %s at %s", e.Missing, e.Url)
}
