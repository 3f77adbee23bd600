package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTimeout   = errors.New("request timed out")
	ErrTransport = errors.New("transport error")
	ErrBlocked   = errors.New("blocked by anti-bot challenge")
)

// BlockedHint is appended to blocked errors so whoever sees them knows what
// to do next.
const BlockedHint = "solve the Cloudflare challenge for the bypass request " +
	"(flamed bypass) in a browser, then pass its cookies with --cookie or cookie_file"

// Error describes a failed fetch. Kind is one of ErrTimeout, ErrTransport or
// ErrBlocked and is what errors.Is matches against.
type Error struct {
	Kind   error
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrBlocked:
		return fmt.Sprintf("fetch %s: %v (HTTP %d): %s", e.URL, e.Kind, e.Status, BlockedHint)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: %v: HTTP %d %s", e.URL, e.Kind, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// retryable reports whether another attempt could succeed. Only blocks are
// final; every other failure spends the attempt budget.
func retryable(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}

	switch fe.Kind {
	case ErrTimeout:
		return true
	case ErrTransport:
		return fe.Status != http.StatusServiceUnavailable
	default:
		return false
	}
}

func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}
