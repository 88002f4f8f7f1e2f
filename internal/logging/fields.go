package logging

// Standardized attribute keys shared across components. Using the constants
// keeps console output grouping and downstream log queries stable.
const (
	FieldComponent  = "component"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
	FieldRunID      = "run_id"
	FieldRunKind    = "run_kind"
	FieldTrigger    = "trigger"
	FieldEntryUID   = "entry_uid"
	FieldEntryCount = "entry_count"
	FieldProvenance = "provenance"
	FieldArtifact   = "artifact"
	FieldState      = "state"
)
