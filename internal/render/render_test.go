package render_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"liner/internal/catalog"
	"liner/internal/enrich"
	"liner/internal/render"
)

func item(artist, title string, year int) enrich.Result {
	return enrich.Result{
		Entry: &catalog.Entry{
			Title:      title,
			Artists:    []string{artist},
			Year:       year,
			Provenance: catalog.ProvenanceCollection,
		},
		Description: enrich.Generated("A description of " + title + "."),
		Haiku:       enrich.Generated("line one\nline two here\nline three"),
	}
}

func TestDocumentIsByteDeterministic(t *testing.T) {
	items := []enrich.Result{
		item("B", "Second", 1998),
		item("A", "Third", 2000),
		item("A", "First", 1995),
	}
	ts := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)

	first, err := render.Document("Album Digest", items, ts)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	second, err := render.Document("Album Digest", items, ts)
	if err != nil {
		t.Fatalf("second Document returned error: %v", err)
	}
	if first != second {
		t.Fatal("identical inputs must produce byte-identical output")
	}
}

func TestDocumentCanonicalOrdering(t *testing.T) {
	items := []enrich.Result{
		item("A", "Later", 2000),
		item("B", "Other", 1998),
		item("A", "Earlier", 1995),
	}
	doc, err := render.Document("Album Digest", items, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}

	posA := strings.Index(doc, "## A\n")
	posB := strings.Index(doc, "## B\n")
	if posA < 0 || posB < 0 || posA > posB {
		t.Fatalf("expected artist A before B, positions %d, %d", posA, posB)
	}
	posEarlier := strings.Index(doc, "### Earlier (1995)")
	posLater := strings.Index(doc, "### Later (2000)")
	if posEarlier < 0 || posLater < 0 || posEarlier > posLater {
		t.Fatalf("expected 1995 entry before 2000 entry, positions %d, %d", posEarlier, posLater)
	}
}

func TestDocumentStructure(t *testing.T) {
	entry := item("Björk", "Post", 1995)
	entry.Entry.Labels = []string{"One Little Indian"}
	entry.Entry.Support = catalog.SupportCD
	entry.Entry.CollectionID = "rel-1"
	entry.Entry.StreamingURL = "https://stream.example/post"
	entry.Entry.CoverURL = "https://img.example/post.jpg"

	ts := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	doc, err := render.Document("Album Digest", []enrich.Result{entry}, ts)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}

	for _, want := range []string{
		"# Album Digest\n",
		"Generated on Tuesday, 25 August 2026 at 09:30 UTC. Albums: 1.\n",
		"## Contents\n",
		"- [Björk](#bjork) (1)\n",
		"## Björk\n",
		"1 album\n",
		"### Post (1995)\n",
		"- Labels: One Little Indian\n",
		"- Support: physical-disc-cd\n",
		"- Reference: rel-1\n",
		"> line one\n",
		"- [Listen](https://stream.example/post)\n",
		"![Cover](https://img.example/post.jpg)\n",
		"_This document was generated automatically._\n",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("artifact missing %q\n---\n%s", want, doc)
		}
	}
}

func TestDocumentRendersFallbackText(t *testing.T) {
	entry := item("A", "Quiet", 2001)
	entry.Description = enrich.Fallback("No description is available for this album right now.")
	entry.Haiku = enrich.Fallback("one\ntwo\nthree")

	doc, err := render.Document("Album Digest", []enrich.Result{entry}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if !strings.Contains(doc, "No description is available") {
		t.Fatal("fallback text must appear in the artifact")
	}
}

func TestDocumentRejectsEntryWithoutArtist(t *testing.T) {
	bad := enrich.Result{
		Entry:       &catalog.Entry{Title: "Nameless"},
		Description: enrich.Fallback("x"),
		Haiku:       enrich.Fallback("a\nb\nc"),
	}
	_, err := render.Document("Album Digest", []enrich.Result{bad}, time.Unix(0, 0))
	if !errors.Is(err, render.ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestDocumentRejectsEmptyTitle(t *testing.T) {
	_, err := render.Document("  ", nil, time.Unix(0, 0))
	if !errors.Is(err, render.ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestAnchorSlugFoldsDiacritics(t *testing.T) {
	items := []enrich.Result{item("Sigur Rós", "Takk...", 2005)}
	doc, err := render.Document("Album Digest", items, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if !strings.Contains(doc, "(#sigur-ros)") {
		t.Fatalf("expected folded anchor, got:\n%s", doc)
	}
}
