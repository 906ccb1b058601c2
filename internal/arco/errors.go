package arco

import "fmt"

// RejectionError is a well-formed error response from the remote service,
// e.g. a failed authentication. Retrying cannot fix it, so it is surfaced
// immediately with the remote's own message when available.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return "arco: request rejected by remote service"
	}
	return fmt.Sprintf("arco: rejected by remote service: %s", e.Message)
}

// UnavailableError is returned after every attempt against the remote
// service failed with a timeout, transport error or non-2xx status.
type UnavailableError struct {
	Attempts   int
	LastStatus int   // last HTTP status, 0 when the failure was transport-level
	Err        error // last transport error, nil when the failure was an HTTP status
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("arco: remote unavailable after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("arco: remote unavailable after %d attempts, last status %d", e.Attempts, e.LastStatus)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
