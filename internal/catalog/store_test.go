package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"liner/internal/catalog"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenPath(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestAddEntryAssignsIdentity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.AddEntry(ctx, &catalog.Entry{
		Title:        "A Love Supreme",
		Artists:      []string{"John Coltrane"},
		Year:         1965,
		Labels:       []string{"Impulse!"},
		Provenance:   catalog.ProvenanceCollection,
		Support:      catalog.SupportVinyl,
		CollectionID: "rel-100",
	})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}
	if entry.UID == "" {
		t.Fatal("expected entry UID to be assigned")
	}
	if entry.CreatedAt.IsZero() || entry.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetEntryByUID(ctx, entry.UID)
	if err != nil {
		t.Fatalf("GetEntryByUID returned error: %v", err)
	}
	if fetched.Title != "A Love Supreme" || fetched.Year != 1965 {
		t.Fatalf("unexpected entry round trip: %+v", fetched)
	}
	if len(fetched.Artists) != 1 || fetched.Artists[0] != "John Coltrane" {
		t.Fatalf("unexpected artists: %v", fetched.Artists)
	}
	if fetched.Support != catalog.SupportVinyl {
		t.Fatalf("unexpected support: %q", fetched.Support)
	}
}

func TestAddEntryRejectsInvalidSupport(t *testing.T) {
	store := openTestStore(t)

	_, err := store.AddEntry(context.Background(), &catalog.Entry{
		Title:      "Aja",
		Artists:    []string{"Steely Dan"},
		Provenance: catalog.ProvenanceCollection,
		Support:    "minidisc",
	})
	verr, ok := catalog.AsValidation(err)
	if !ok || verr.Reason != catalog.ReasonInvalidSupport {
		t.Fatalf("expected invalid-support rejection, got %v", err)
	}
}

func TestIngestEntrySameProvenanceUpdatesInPlace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.IngestEntry(ctx, &catalog.Entry{
		Title:        "Remain in Light",
		Artists:      []string{"Talking Heads"},
		Year:         1980,
		Provenance:   catalog.ProvenanceCollection,
		CollectionID: "rel-200",
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	second, err := store.IngestEntry(ctx, &catalog.Entry{
		Title:        "Remain in Light",
		Artists:      []string{"Talking Heads"},
		Year:         1980,
		Provenance:   catalog.ProvenanceCollection,
		Support:      catalog.SupportCD,
		CollectionID: "rel-200",
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if second.ID != first.ID || second.UID != first.UID {
		t.Fatalf("expected update in place, got new row %d vs %d", second.ID, first.ID)
	}
	if second.Provenance != catalog.ProvenanceCollection {
		t.Fatalf("provenance changed: %q", second.Provenance)
	}
	if second.Support != catalog.SupportCD {
		t.Fatalf("expected support updated, got %q", second.Support)
	}

	entries, err := store.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected single row, got %d", len(entries))
	}
}

func TestIngestEntryRejectsProvenanceMismatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	original, err := store.IngestEntry(ctx, &catalog.Entry{
		Title:        "Low",
		Artists:      []string{"David Bowie"},
		Year:         1977,
		Provenance:   catalog.ProvenanceCollection,
		CollectionID: "rel-300",
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err = store.IngestEntry(ctx, &catalog.Entry{
		Title:       "Low",
		Artists:     []string{"David Bowie"},
		Year:        1977,
		Provenance:  catalog.ProvenanceStreaming,
		StreamingID: "rel-300",
	})
	verr, ok := catalog.AsValidation(err)
	if !ok || verr.Reason != catalog.ReasonProvenanceMismatch {
		t.Fatalf("expected provenance-mismatch rejection, got %v", err)
	}

	stored, err := store.GetEntryByUID(ctx, original.UID)
	if err != nil {
		t.Fatalf("GetEntryByUID: %v", err)
	}
	if stored.Provenance != catalog.ProvenanceCollection {
		t.Fatalf("stored provenance was altered: %q", stored.Provenance)
	}
	if !stored.UpdatedAt.Equal(original.UpdatedAt) {
		t.Fatal("rejected ingest must not touch the stored row")
	}
}

func TestDuplicateAlbumsAcrossSourcesStayDistinct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.IngestEntry(ctx, &catalog.Entry{
		Title:        "Hounds of Love",
		Artists:      []string{"Kate Bush"},
		Provenance:   catalog.ProvenanceCollection,
		CollectionID: "rel-400",
	}); err != nil {
		t.Fatalf("collection ingest: %v", err)
	}
	if _, err := store.IngestEntry(ctx, &catalog.Entry{
		Title:       "Hounds of Love",
		Artists:     []string{"Kate Bush"},
		Provenance:  catalog.ProvenanceStreaming,
		StreamingID: "str-400",
	}); err != nil {
		t.Fatalf("streaming ingest: %v", err)
	}

	entries, err := store.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two distinct rows, got %d", len(entries))
	}
}

func TestEntriesByProvenance(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seeds := []*catalog.Entry{
		{Title: "One", Artists: []string{"A"}, Provenance: catalog.ProvenanceCollection},
		{Title: "Two", Artists: []string{"B"}, Provenance: catalog.ProvenanceManual},
		{Title: "Three", Artists: []string{"C"}, Provenance: catalog.ProvenanceCollection},
	}
	for _, seed := range seeds {
		if _, err := store.AddEntry(ctx, seed); err != nil {
			t.Fatalf("seed %q: %v", seed.Title, err)
		}
	}

	collection, err := store.EntriesByProvenance(ctx, catalog.ProvenanceCollection)
	if err != nil {
		t.Fatalf("EntriesByProvenance: %v", err)
	}
	if len(collection) != 2 {
		t.Fatalf("expected 2 collection entries, got %d", len(collection))
	}

	counts, err := store.CountByProvenance(ctx)
	if err != nil {
		t.Fatalf("CountByProvenance: %v", err)
	}
	if counts[catalog.ProvenanceCollection] != 2 || counts[catalog.ProvenanceManual] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, catalog.RunKindDigest, catalog.TriggerScheduled)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != catalog.RunStatusRunning {
		t.Fatalf("expected running status, got %q", run.Status)
	}
	if run.UID == "" || run.StartedAt.IsZero() {
		t.Fatalf("expected identity and start time, got %+v", run)
	}

	run.Status = catalog.RunStatusSucceeded
	run.EntriesSelected = 10
	run.EnrichedCount = 9
	run.DegradedCount = 1
	run.BreakerState = "closed"
	run.ArtifactPath = "/tmp/album-digest.md"
	if err := store.FinalizeRun(ctx, run); err != nil {
		t.Fatalf("FinalizeRun: %v", err)
	}

	stored, err := store.GetRunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunByID: %v", err)
	}
	if stored.Status != catalog.RunStatusSucceeded || stored.FinishedAt == nil {
		t.Fatalf("unexpected finalized run: %+v", stored)
	}
	if stored.EntriesSelected != 10 || stored.DegradedCount != 1 {
		t.Fatalf("unexpected counters: %+v", stored)
	}
}

func TestFinalizeRunIsAppendOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, catalog.RunKindAlbumOfDay, catalog.TriggerManual)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run.Status = catalog.RunStatusFailed
	run.ErrorKind = "write-failure"
	if err := store.FinalizeRun(ctx, run); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	run.Status = catalog.RunStatusSucceeded
	run.ErrorKind = ""
	if err := store.FinalizeRun(ctx, run); !errors.Is(err, catalog.ErrRunFinalized) {
		t.Fatalf("expected ErrRunFinalized, got %v", err)
	}

	stored, err := store.GetRunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunByID: %v", err)
	}
	if stored.Status != catalog.RunStatusFailed || stored.ErrorKind != "write-failure" {
		t.Fatalf("finalized record was rewritten: %+v", stored)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, err := store.StartRun(ctx, catalog.RunKindDigest, catalog.TriggerScheduled)
		if err != nil {
			t.Fatalf("StartRun %d: %v", i, err)
		}
		run.Status = catalog.RunStatusSucceeded
		if err := store.FinalizeRun(ctx, run); err != nil {
			t.Fatalf("FinalizeRun %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Fatalf("expected newest first, got ids %d, %d", runs[0].ID, runs[1].ID)
	}

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last.ID != runs[0].ID {
		t.Fatalf("expected last run %d, got %d", runs[0].ID, last.ID)
	}
}
