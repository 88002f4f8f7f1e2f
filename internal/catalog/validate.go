package catalog

import "strings"

// Validate checks a single entry against the catalog rules: the provenance
// must be a known value, title and at least one artist must be present, and
// collection-provenance entries may only carry a support from the closed
// collection set. Support is optional for every provenance.
func Validate(entry *Entry) error {
	if entry == nil {
		return newValidationError(ReasonMissingTitle, "entry is nil")
	}
	if _, ok := provenanceSet[entry.Provenance]; !ok {
		return newValidationError(ReasonUnknownProvenance, "provenance %q is not recognized", entry.Provenance)
	}
	if strings.TrimSpace(entry.Title) == "" {
		return newValidationError(ReasonMissingTitle, "entry has no title")
	}
	if entry.PrimaryArtist() == "" {
		return newValidationError(ReasonMissingArtist, "entry %q has no artist", entry.Title)
	}
	support := strings.TrimSpace(entry.Support)
	if entry.Provenance == ProvenanceCollection && support != "" {
		if _, ok := collectionSupports[support]; !ok {
			return newValidationError(ReasonInvalidSupport,
				"support %q is not allowed for collection entries", support)
		}
	}
	return nil
}

// ValidateTransition enforces provenance immutability when a source record is
// re-ingested: an incoming record that matches an existing row by external
// identifier must carry the same provenance, otherwise the update is rejected
// and the existing row stays untouched.
func ValidateTransition(existing, incoming *Entry) error {
	if existing == nil || incoming == nil {
		return nil
	}
	if existing.Provenance != incoming.Provenance {
		return newValidationError(ReasonProvenanceMismatch,
			"entry %q is owned by provenance %q, refusing update from %q",
			existing.Title, existing.Provenance, incoming.Provenance)
	}
	return nil
}
