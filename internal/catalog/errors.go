package catalog

import "errors"

// Kind classifies service failures so that the API layer can pick the
// HTTP status and message without inspecting store internals.
type Kind int

const (
	KindUnknown Kind = iota
	KindUploadFailed
	KindInsertFailed
	KindQueryFailed
	KindNotFound
	KindUpdateFailed
	KindDeleteFailed
	KindMissingField
	KindInternal
)

// Error is the failure type returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the underlying store error text, or empty when the
// failure carries no detail.
func (e *Error) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// E builds a service error.
func E(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
