// Package render produces the canonical Markdown artifact from enriched
// catalog entries. Document is pure: identical inputs yield byte-identical
// output, and every caller goes through the same function so the layout
// cannot drift between the interactive and scheduled paths.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"liner/internal/enrich"
)

// ErrInvariant reports a structural rule violation inside the renderer. It
// is fatal to the run that triggered it; no artifact may be written.
var ErrInvariant = errors.New("render: structural invariant violated")

const (
	timestampLayout = "Monday, 02 January 2006 at 15:04 UTC"
	separator       = "---"
	footer          = "_This document was generated automatically._"
)

type artistGroup struct {
	name  string
	items []enrich.Result
}

// Document renders the artifact for the given title and enriched entries.
// Entries are grouped by primary artist (case-sensitive alphabetical), then
// ordered by release year ascending and title within each group.
func Document(title string, items []enrich.Result, generatedAt time.Time) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: empty document title", ErrInvariant)
	}
	for i := range items {
		entry := items[i].Entry
		if entry == nil {
			return "", fmt.Errorf("%w: item %d has no entry", ErrInvariant, i)
		}
		if strings.TrimSpace(entry.Title) == "" || entry.PrimaryArtist() == "" {
			return "", fmt.Errorf("%w: item %d missing title or artist", ErrInvariant, i)
		}
	}

	groups := groupByArtist(items)
	if err := checkOrdering(groups); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Generated on %s. Albums: %d.\n\n", generatedAt.UTC().Format(timestampLayout), len(items))

	b.WriteString("## Contents\n\n")
	for _, group := range groups {
		fmt.Fprintf(&b, "- [%s](#%s) (%d)\n", group.name, anchorSlug(group.name), len(group.items))
	}
	b.WriteString("\n" + separator + "\n\n")

	for _, group := range groups {
		fmt.Fprintf(&b, "## %s\n\n", group.name)
		fmt.Fprintf(&b, "%s\n\n", countLabel(len(group.items)))
		b.WriteString(separator + "\n\n")
		for i := range group.items {
			writeEntry(&b, &group.items[i])
		}
	}

	b.WriteString(footer + "\n")
	return b.String(), nil
}

func writeEntry(b *strings.Builder, item *enrich.Result) {
	entry := item.Entry

	if entry.Year > 0 {
		fmt.Fprintf(b, "### %s (%d)\n\n", entry.Title, entry.Year)
	} else {
		fmt.Fprintf(b, "### %s\n\n", entry.Title)
	}

	fmt.Fprintf(b, "- Artist: %s\n", strings.Join(entry.Artists, ", "))
	if entry.Year > 0 {
		fmt.Fprintf(b, "- Year: %d\n", entry.Year)
	}
	if len(entry.Labels) > 0 {
		fmt.Fprintf(b, "- Labels: %s\n", strings.Join(entry.Labels, ", "))
	}
	if entry.Support != "" {
		fmt.Fprintf(b, "- Support: %s\n", entry.Support)
	}
	if id := entry.ExternalID(); id != "" {
		fmt.Fprintf(b, "- Reference: %s\n", id)
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "%s\n\n", item.Description.Value())

	for _, line := range strings.Split(item.Haiku.Value(), "\n") {
		fmt.Fprintf(b, "> %s\n", line)
	}
	b.WriteString("\n")

	if entry.StreamingURL != "" || entry.SourceURL != "" {
		if entry.StreamingURL != "" {
			fmt.Fprintf(b, "- [Listen](%s)\n", entry.StreamingURL)
		}
		if entry.SourceURL != "" {
			fmt.Fprintf(b, "- [Source](%s)\n", entry.SourceURL)
		}
		b.WriteString("\n")
	}

	if entry.CoverURL != "" {
		fmt.Fprintf(b, "![Cover](%s)\n\n", entry.CoverURL)
	}

	b.WriteString(separator + "\n\n")
}

func countLabel(count int) string {
	if count == 1 {
		return "1 album"
	}
	return fmt.Sprintf("%d albums", count)
}

func groupByArtist(items []enrich.Result) []artistGroup {
	byArtist := make(map[string][]enrich.Result)
	for _, item := range items {
		name := item.Entry.PrimaryArtist()
		byArtist[name] = append(byArtist[name], item)
	}

	names := make([]string, 0, len(byArtist))
	for name := range byArtist {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]artistGroup, 0, len(names))
	for _, name := range names {
		grouped := byArtist[name]
		sort.SliceStable(grouped, func(i, j int) bool {
			a, b := grouped[i].Entry, grouped[j].Entry
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return a.Title < b.Title
		})
		groups = append(groups, artistGroup{name: name, items: grouped})
	}
	return groups
}

func checkOrdering(groups []artistGroup) error {
	for i := 1; i < len(groups); i++ {
		if groups[i-1].name >= groups[i].name {
			return fmt.Errorf("%w: artist groups out of order at %d", ErrInvariant, i)
		}
	}
	for _, group := range groups {
		for i := 1; i < len(group.items); i++ {
			prev, cur := group.items[i-1].Entry, group.items[i].Entry
			if prev.Year > cur.Year {
				return fmt.Errorf("%w: years out of order under %q", ErrInvariant, group.name)
			}
			if prev.Year == cur.Year && prev.Title > cur.Title {
				return fmt.Errorf("%w: titles out of order under %q", ErrInvariant, group.name)
			}
		}
	}
	return nil
}
