package publish

import (
	"math/rand"

	"liner/internal/catalog"
)

// selection holds the outcome of the selecting state: the chosen entries and
// how many candidates the validator rejected.
type selection struct {
	entries  []*catalog.Entry
	rejected int
}

// selectEntries filters candidates through the validator and applies the
// run-kind selection rule: a digest samples up to batchSize entries at
// random, an album-of-day run picks a single entry.
func selectEntries(kind catalog.RunKind, candidates []*catalog.Entry, batchSize int, rng *rand.Rand) selection {
	var sel selection
	valid := make([]*catalog.Entry, 0, len(candidates))
	for _, entry := range candidates {
		if err := catalog.Validate(entry); err != nil {
			sel.rejected++
			continue
		}
		valid = append(valid, entry)
	}
	if len(valid) == 0 {
		return sel
	}

	switch kind {
	case catalog.RunKindAlbumOfDay:
		sel.entries = []*catalog.Entry{valid[rng.Intn(len(valid))]}
	default:
		if batchSize <= 0 || batchSize >= len(valid) {
			sel.entries = valid
			break
		}
		picked := rng.Perm(len(valid))[:batchSize]
		sel.entries = make([]*catalog.Entry, 0, batchSize)
		for _, idx := range picked {
			sel.entries = append(sel.entries, valid[idx])
		}
	}
	return sel
}
