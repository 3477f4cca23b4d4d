package flickr

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindRateLimited ErrorKind = iota + 1
	KindNotFound
	KindTransient
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is a classified upstream failure. Code is the upstream's own error
// code when one was returned, 0 otherwise.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("flickr: %s (code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("flickr: %s: %s", e.Kind, e.Message)
}

// Kind extracts the classification from an error chain, or 0 when the error
// did not come from the upstream client.
func Kind(err error) ErrorKind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return 0
}

// IsNotFound reports whether err is an upstream not-found failure. Absence
// is normal for aggregation, so callers check this a lot.
func IsNotFound(err error) bool {
	return Kind(err) == KindNotFound
}
