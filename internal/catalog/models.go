package catalog

import (
	"strings"
	"time"
)

// Provenance identifies the origin system that produced a catalog entry.
// It is assigned at creation and never changes afterwards.
type Provenance string

const (
	// ProvenanceCollection marks entries ingested from the record-collection database.
	ProvenanceCollection Provenance = "collection"
	// ProvenanceHistoryA marks entries from the first listening-history tracker.
	ProvenanceHistoryA Provenance = "listening-history-a"
	// ProvenanceHistoryB marks entries from the second listening-history tracker.
	ProvenanceHistoryB Provenance = "listening-history-b"
	// ProvenanceStreaming marks entries imported from a streaming service.
	ProvenanceStreaming Provenance = "streaming-import"
	// ProvenanceManual marks entries entered by hand.
	ProvenanceManual Provenance = "manual"
)

var allProvenances = []Provenance{
	ProvenanceCollection,
	ProvenanceHistoryA,
	ProvenanceHistoryB,
	ProvenanceStreaming,
	ProvenanceManual,
}

var provenanceSet = func() map[Provenance]struct{} {
	set := make(map[Provenance]struct{}, len(allProvenances))
	for _, p := range allProvenances {
		set[p] = struct{}{}
	}
	return set
}()

// AllProvenances returns the ordered list of known provenances.
func AllProvenances() []Provenance {
	cp := make([]Provenance, len(allProvenances))
	copy(cp, allProvenances)
	return cp
}

// ParseProvenance converts a string into a known Provenance.
func ParseProvenance(value string) (Provenance, bool) {
	normalized := Provenance(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := provenanceSet[normalized]
	return normalized, ok
}

// Support values allowed for collection-provenance entries. Entries from any
// other provenance may carry arbitrary support descriptors.
const (
	SupportVinyl    = "physical-disc-vinyl"
	SupportCD       = "physical-disc-cd"
	SupportDigital  = "digital"
	SupportCassette = "cassette"
)

var collectionSupports = map[string]struct{}{
	SupportVinyl:    {},
	SupportCD:       {},
	SupportDigital:  {},
	SupportCassette: {},
}

// CollectionSupports returns the closed set of support values accepted for
// collection-provenance entries.
func CollectionSupports() []string {
	return []string{SupportVinyl, SupportCD, SupportDigital, SupportCassette}
}

// Entry represents one album in the catalog. Duplicate physical albums
// reported by different sources are kept as distinct entries distinguished
// by provenance; no merge rule is applied.
type Entry struct {
	ID           int64
	UID          string
	Title        string
	Artists      []string
	Year         int
	Labels       []string
	Provenance   Provenance
	Support      string
	CollectionID string
	StreamingID  string
	CoverURL     string
	SourceURL    string
	StreamingURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrimaryArtist returns the first artist reference, or an empty string when
// the entry carries none.
func (e *Entry) PrimaryArtist() string {
	if e == nil || len(e.Artists) == 0 {
		return ""
	}
	return strings.TrimSpace(e.Artists[0])
}

// ExternalID returns the source-owned identifier for the entry's provenance,
// used to match re-ingested records to existing rows.
func (e *Entry) ExternalID() string {
	if e == nil {
		return ""
	}
	switch e.Provenance {
	case ProvenanceCollection:
		return strings.TrimSpace(e.CollectionID)
	case ProvenanceStreaming:
		return strings.TrimSpace(e.StreamingID)
	default:
		return ""
	}
}
