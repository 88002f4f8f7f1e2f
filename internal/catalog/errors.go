package catalog

import (
	"errors"
	"fmt"
)

// Validation failure reasons recorded on ValidationError and surfaced in run
// anomaly reporting.
const (
	ReasonUnknownProvenance  = "unknown-provenance"
	ReasonInvalidSupport     = "invalid-support-for-provenance"
	ReasonProvenanceMismatch = "provenance-mismatch"
	ReasonMissingTitle       = "missing-title"
	ReasonMissingArtist      = "missing-artist"
)

// ErrRunFinalized is returned when a publish run is finalized more than once.
var ErrRunFinalized = errors.New("publish run already finalized")

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("catalog: not found")

// ValidationError describes why an entry was rejected by the catalog rules.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("catalog validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("catalog validation failed: %s (%s)", e.Reason, e.Detail)
}

func newValidationError(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
