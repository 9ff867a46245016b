package ledger

import "errors"

// Sentinel errors for the ledger's failure outcomes. Every error returned by
// a Ledger method wraps exactly one of these.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrStorage          = errors.New("operation failed")
	ErrPartiallyApplied = errors.New("partially applied")
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindStorage      Kind = "storage"
	KindPartial      Kind = "partial"
	KindUnknown      Kind = "unknown"
)

// KindOf returns the category of err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartiallyApplied):
		return KindPartial
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}
