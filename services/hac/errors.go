package hac

import "errors"

// Client-facing sentinel errors. The HTTP layer maps these to 400/401, and
// anything else is surfaced as a generic 500 with the detail kept in logs.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrBadDate            = errors.New("date must be a valid YYYY-MM-DD date")
)
