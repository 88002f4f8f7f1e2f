package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"liner/internal/catalog"
	"liner/internal/notifications"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage catalog entries",
	}

	catalogCmd.AddCommand(newCatalogAddCommand(ctx))
	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogValidateCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))

	return catalogCmd
}

type entryRecord struct {
	Title        string   `json:"title"`
	Artists      []string `json:"artists"`
	Year         int      `json:"year"`
	Labels       []string `json:"labels,omitempty"`
	Provenance   string   `json:"provenance"`
	Support      string   `json:"support,omitempty"`
	CollectionID string   `json:"collection_id,omitempty"`
	StreamingID  string   `json:"streaming_id,omitempty"`
	CoverURL     string   `json:"cover_url,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	StreamingURL string   `json:"streaming_url,omitempty"`
}

func (r entryRecord) toEntry() (*catalog.Entry, error) {
	provenance, ok := catalog.ParseProvenance(r.Provenance)
	if !ok {
		return nil, fmt.Errorf("unknown provenance %q", r.Provenance)
	}
	return &catalog.Entry{
		Title:        strings.TrimSpace(r.Title),
		Artists:      r.Artists,
		Year:         r.Year,
		Labels:       r.Labels,
		Provenance:   provenance,
		Support:      strings.TrimSpace(strings.ToLower(r.Support)),
		CollectionID: strings.TrimSpace(r.CollectionID),
		StreamingID:  strings.TrimSpace(r.StreamingID),
		CoverURL:     strings.TrimSpace(r.CoverURL),
		SourceURL:    strings.TrimSpace(r.SourceURL),
		StreamingURL: strings.TrimSpace(r.StreamingURL),
	}, nil
}

func newCatalogAddCommand(ctx *commandContext) *cobra.Command {
	var record entryRecord

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single entry to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			entry, err := record.toEntry()
			if err != nil {
				return err
			}
			stored, err := store.AddEntry(cmd.Context(), entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s) as %s\n", stored.Title, stored.Provenance, stored.UID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&record.Title, "title", "", "Album title")
	flags.StringSliceVar(&record.Artists, "artist", nil, "Album artist (repeatable)")
	flags.IntVar(&record.Year, "year", 0, "Release year")
	flags.StringSliceVar(&record.Labels, "label", nil, "Record label (repeatable)")
	flags.StringVar(&record.Provenance, "provenance", string(catalog.ProvenanceManual), "Entry provenance")
	flags.StringVar(&record.Support, "support", "", "Physical or digital support (collection entries only)")
	flags.StringVar(&record.CollectionID, "collection-id", "", "Collection release identifier")
	flags.StringVar(&record.StreamingID, "streaming-id", "", "Streaming catalog identifier")
	flags.StringVar(&record.CoverURL, "cover-url", "", "Cover art URL")
	flags.StringVar(&record.SourceURL, "source-url", "", "Source page URL")
	flags.StringVar(&record.StreamingURL, "streaming-url", "", "Streaming page URL")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("artist")

	return cmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import entries from a JSON file",
		Long: "Import reads a JSON array of entries and ingests each one. Entries that " +
			"match an existing row from the same source are updated in place; entries " +
			"that collide with a different provenance are reported and skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var records []entryRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			ingested := 0
			skipped := 0
			for i, record := range records {
				entry, err := record.toEntry()
				if err != nil {
					skipped++
					fmt.Fprintf(out, "Skipped entry %d: %v\n", i+1, err)
					continue
				}
				stored, err := store.IngestEntry(cmd.Context(), entry)
				if err != nil {
					var verr *catalog.ValidationError
					if errors.As(err, &verr) {
						skipped++
						fmt.Fprintf(out, "Skipped entry %d (%s): %s\n", i+1, verr.Reason, verr.Detail)
						continue
					}
					return fmt.Errorf("ingest entry %d: %w", i+1, err)
				}
				ingested++
				fmt.Fprintf(out, "Ingested %q as %s\n", stored.Title, stored.UID)
			}
			fmt.Fprintf(out, "Imported %d entries, skipped %d\n", ingested, skipped)
			if err := notifications.NewService(cfg).NotifyCatalogImported(cmd.Context(), ingested, skipped); err != nil {
				fmt.Fprintf(out, "Notification failed: %v\n", err)
			}
			if skipped > 0 {
				return fmt.Errorf("%d entries were skipped", skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "JSON file containing an array of entries")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var provenanceFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			var entries []*catalog.Entry
			if strings.TrimSpace(provenanceFlag) != "" {
				provenance, ok := catalog.ParseProvenance(provenanceFlag)
				if !ok {
					return fmt.Errorf("unknown provenance %q", provenanceFlag)
				}
				entries, err = store.EntriesByProvenance(cmd.Context(), provenance)
			} else {
				entries, err = store.ListEntries(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				year := ""
				if entry.Year > 0 {
					year = strconv.Itoa(entry.Year)
				}
				rows = append(rows, []string{
					entry.UID,
					entry.Title,
					entry.PrimaryArtist(),
					year,
					string(entry.Provenance),
					entry.Support,
				})
			}
			headers := []string{"UID", "Title", "Artist", "Year", "Provenance", "Support"}
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
					alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft,
				}))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(out, strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provenanceFlag, "provenance", "", "Limit output to one provenance")
	return cmd
}

func newCatalogValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every stored entry against the catalog rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			entries, err := store.ListEntries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			violations := 0
			for _, entry := range entries {
				if err := catalog.Validate(entry); err != nil {
					violations++
					fmt.Fprintf(out, "%s %q: %v\n", entry.UID, entry.Title, err)
				}
			}
			fmt.Fprintf(out, "Checked %d entries, %d violations\n", len(entries), violations)
			if violations > 0 {
				return fmt.Errorf("%d entries violate catalog rules", violations)
			}
			return nil
		},
	}
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uid>",
		Short: "Remove an entry from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog store: %w", err)
			}
			defer store.Close()

			uid := strings.TrimSpace(args[0])
			if err := store.DeleteEntry(cmd.Context(), uid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", uid)
			return nil
		},
	}
}
