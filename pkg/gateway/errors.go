package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetriesExhausted matches (via errors.Is) any GatewayError returned after
// the retry budget ran out.
var ErrRetriesExhausted = errors.New("gateway: retries exhausted")

// ErrorKind classifies upstream failures.
type ErrorKind int

const (
	// KindTransient covers 429 and retryable 5xx responses.
	KindTransient ErrorKind = iota + 1
	// KindPermanent covers every other non-2xx response.
	KindPermanent
	// KindNetwork covers connection, DNS and timeout failures.
	KindNetwork
	// KindMalformed is a 2xx response whose body is not valid JSON.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Retryable reports whether the gateway retries failures of this kind.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient || k == KindNetwork
}

// GatewayError is the typed failure surfaced by Execute.
type GatewayError struct {
	Kind       ErrorKind
	Upstream   string
	Path       string
	StatusCode int
	Attempts   int
	Exhausted  bool
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("gateway: %s %s: %s failure", e.Upstream, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http status %d)", e.StatusCode)
	}
	if e.Exhausted {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRetriesExhausted) match exhausted failures.
func (e *GatewayError) Is(target error) bool {
	return target == ErrRetriesExhausted && e.Exhausted
}

func classifyStatus(code int) ErrorKind {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return KindTransient
	default:
		return KindPermanent
	}
}

func kindOf(err error) (ErrorKind, bool) {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Kind, true
	}
	return 0, false
}

// IsTransient reports whether err is a 429/5xx upstream failure.
func IsTransient(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindTransient
}

// IsPermanent reports whether err is a non-retryable upstream status.
func IsPermanent(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindPermanent
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == KindNetwork
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.StatusCode
	}
	return 0
}
