package testsupport

import (
	"context"
	"fmt"
	"testing"

	"liner/internal/catalog"
	"liner/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCollectionEntries inserts count valid collection-provenance entries.
func SeedCollectionEntries(t testing.TB, store *catalog.Store, count int) []*catalog.Entry {
	t.Helper()

	entries := make([]*catalog.Entry, 0, count)
	for i := 0; i < count; i++ {
		entry, err := store.AddEntry(context.Background(), &catalog.Entry{
			Title:        fmt.Sprintf("Album %02d", i),
			Artists:      []string{fmt.Sprintf("Artist %02d", i)},
			Year:         1990 + i,
			Provenance:   catalog.ProvenanceCollection,
			Support:      catalog.SupportVinyl,
			CollectionID: fmt.Sprintf("rel-%03d", i),
		})
		if err != nil {
			t.Fatalf("seed entry %d: %v", i, err)
		}
		entries = append(entries, entry)
	}
	return entries
}
