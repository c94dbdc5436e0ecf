package domain

import "errors"

// Sentinel errors forming the closed failure taxonomy of the pipeline. Every
// adapter wraps its failures in exactly one of these so the driver can report
// a kind without inspecting error strings.
var (
	// ErrNoResults means geocoding produced no candidate for the name.
	ErrNoResults = errors.New("no coordinates found for location")

	// ErrMalformedResponse means an upstream payload was missing required
	// fields or internally inconsistent. Never retried.
	ErrMalformedResponse = errors.New("unexpected shape of upstream response")

	// ErrTransport covers network failures, timeouts, and non-2xx statuses
	// from either upstream API.
	ErrTransport = errors.New("upstream request failed")

	// ErrStorage covers failures opening, migrating, or writing the store.
	ErrStorage = errors.New("storage failure")
)

// ErrorKind is the reporting label for a pipeline failure.
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindMalformed ErrorKind = "malformed_response"
	KindTransport ErrorKind = "transport"
	KindStorage   ErrorKind = "storage"

	// KindUnexpected is the catch-all for errors outside the taxonomy.
	KindUnexpected ErrorKind = "unexpected"
)

// Classify maps any error to its kind. Unknown errors classify as unexpected
// rather than being left untyped.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNoResults):
		return KindNotFound
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnexpected
	}
}
