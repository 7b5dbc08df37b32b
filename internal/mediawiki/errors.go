package mediawiki

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when an edit still conflicts after all attempts.
	ErrConflict = errors.New("mediawiki: edit conflict")
	// ErrExists is returned by Create when the title already exists.
	ErrExists = errors.New("mediawiki: page already exists")
	// ErrMissing is returned when an edit targets a page that does not exist.
	ErrMissing = errors.New("mediawiki: page does not exist")
	// ErrNotLoggedIn is returned by writes before Login succeeded.
	ErrNotLoggedIn = errors.New("mediawiki: not logged in")
	// ErrSkipEdit may be returned by a Transform to end Edit without writing.
	ErrSkipEdit = errors.New("mediawiki: edit skipped")
)

// APIError is an error object returned by the Action API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

// transient reports whether the server asked us to come back later.
func (e *APIError) transient() bool {
	switch e.Code {
	case "maxlag", "ratelimited", "readonly", "internal_api_error_DBQueryError":
		return true
	}
	return false
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// HTTPError is a non-2xx response from the API endpoint.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("mediawiki http %d: %s", e.Status, e.Body)
}
