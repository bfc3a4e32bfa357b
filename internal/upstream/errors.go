package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by Client wraps exactly one of these.
var (
	ErrTransport         = errors.New("transport error")
	ErrHTTPStatus        = errors.New("http status error")
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchError describes a failed upstream call.
type FetchError struct {
	Kind        error
	Upstream    string
	StatusCode  int // only set for ErrHTTPStatus
	Description string
	Err         error
}

func (e *FetchError) Error() string {
	if e.Upstream == "" {
		return e.Description
	}
	return e.Upstream + ": " + e.Description
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTransportError wraps a network level failure.
func NewTransportError(upstream string, err error) *FetchError {
	return &FetchError{
		Kind:        ErrTransport,
		Upstream:    upstream,
		Description: fmt.Sprintf("request failed: %v", err),
		Err:         err,
	}
}

// NewStatusError reports a non-2xx response.
func NewStatusError(upstream string, code int) *FetchError {
	return &FetchError{
		Kind:        ErrHTTPStatus,
		Upstream:    upstream,
		StatusCode:  code,
		Description: fmt.Sprintf("unexpected status %d %s", code, http.StatusText(code)),
	}
}

// NewMalformedError reports a body that could not be decoded or lacks required fields.
func NewMalformedError(upstream, description string, err error) *FetchError {
	return &FetchError{
		Kind:        ErrMalformedResponse,
		Upstream:    upstream,
		Description: description,
		Err:         err,
	}
}

// StatusCode returns the upstream HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && errors.Is(fe.Kind, ErrHTTPStatus) {
		return fe.StatusCode, true
	}
	return 0, false
}
