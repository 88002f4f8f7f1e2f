package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"liner/internal/config"
)

// Store manages catalog persistence backed by SQLite. All entry writes pass
// through the validation rules; provenance is immutable once a row exists.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the catalog database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// AddEntry validates and inserts a new catalog entry, assigning its UID and
// timestamps. The entry's provenance is fixed from this point on.
func (s *Store) AddEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	entryUID := uuid.NewString()

	artistsJSON, err := json.Marshal(entry.Artists)
	if err != nil {
		return nil, fmt.Errorf("marshal artists: %w", err)
	}
	labelsJSON, err := json.Marshal(entry.Labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO catalog_entries (
            uid, title, artists_json, release_year, labels_json,
            provenance, support, collection_id, streaming_id,
            cover_url, source_url, streaming_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryUID,
		strings.TrimSpace(entry.Title),
		string(artistsJSON),
		nullableInt(entry.Year),
		string(labelsJSON),
		string(entry.Provenance),
		nullableString(strings.TrimSpace(entry.Support)),
		nullableString(strings.TrimSpace(entry.CollectionID)),
		nullableString(strings.TrimSpace(entry.StreamingID)),
		nullableString(entry.CoverURL),
		nullableString(entry.SourceURL),
		nullableString(entry.StreamingURL),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEntryByID(ctx, id)
}

// IngestEntry records an entry arriving from a source feed. When the entry
// carries an external identifier that matches an existing row, the match is
// checked for provenance agreement: the same provenance updates the row's
// descriptive fields in place, a different provenance is rejected with a
// provenance-mismatch validation error and the stored row stays untouched.
// Entries without an external identifier always insert a new row.
func (s *Store) IngestEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}

	externalID := entry.ExternalID()
	if externalID == "" {
		return s.AddEntry(ctx, entry)
	}

	existing, err := s.findByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing == nil {
		return s.AddEntry(ctx, entry)
	}
	if err := ValidateTransition(existing, entry); err != nil {
		return nil, err
	}
	return s.updateEntryFields(ctx, existing.ID, entry)
}

func (s *Store) findByExternalID(ctx context.Context, externalID string) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM catalog_entries
         WHERE collection_id = ? OR streaming_id = ?
         ORDER BY id LIMIT 1`,
		externalID, externalID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find entry by external id: %w", err)
	}
	return entry, nil
}

func (s *Store) updateEntryFields(ctx context.Context, id int64, entry *Entry) (*Entry, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	artistsJSON, err := json.Marshal(entry.Artists)
	if err != nil {
		return nil, fmt.Errorf("marshal artists: %w", err)
	}
	labelsJSON, err := json.Marshal(entry.Labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE catalog_entries SET
            title = ?, artists_json = ?, release_year = ?, labels_json = ?,
            support = ?, cover_url = ?, source_url = ?, streaming_url = ?,
            updated_at = ?
         WHERE id = ?`,
		strings.TrimSpace(entry.Title),
		string(artistsJSON),
		nullableInt(entry.Year),
		string(labelsJSON),
		nullableString(strings.TrimSpace(entry.Support)),
		nullableString(entry.CoverURL),
		nullableString(entry.SourceURL),
		nullableString(entry.StreamingURL),
		timestamp,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return s.GetEntryByID(ctx, id)
}

// GetEntryByID fetches an entry by row identifier.
func (s *Store) GetEntryByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return entry, nil
}

// GetEntryByUID fetches an entry by its stable UID.
func (s *Store) GetEntryByUID(ctx context.Context, uid string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE uid = ?`, uid)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", uid, err)
	}
	return entry, nil
}

// ListEntries returns every catalog entry ordered by insertion.
func (s *Store) ListEntries(ctx context.Context) ([]*Entry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM catalog_entries ORDER BY id`)
}

// EntriesByProvenance returns entries filtered to the given provenances,
// ordered by insertion.
func (s *Store) EntriesByProvenance(ctx context.Context, provenances ...Provenance) ([]*Entry, error) {
	if len(provenances) == 0 {
		return s.ListEntries(ctx)
	}
	placeholders := makePlaceholders(len(provenances))
	args := make([]any, 0, len(provenances))
	for _, p := range provenances {
		args = append(args, string(p))
	}
	query := fmt.Sprintf(`SELECT %s FROM catalog_entries WHERE provenance IN (%s) ORDER BY id`, entryColumns, placeholders)
	return s.queryEntries(ctx, query, args...)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountByProvenance reports how many entries each provenance holds.
func (s *Store) CountByProvenance(ctx context.Context) (map[Provenance]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT provenance, COUNT(1) FROM catalog_entries GROUP BY provenance`)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[Provenance]int)
	for rows.Next() {
		var prov string
		var count int
		if err := rows.Scan(&prov, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Provenance(prov)] = count
	}
	return counts, rows.Err()
}

// DeleteEntry removes an entry by UID.
func (s *Store) DeleteEntry(ctx context.Context, uid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Health verifies the database responds to a trivial query.
func (s *Store) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("catalog database unavailable: %w", err)
	}
	return nil
}

const entryColumns = "id, uid, title, artists_json, release_year, labels_json, provenance, support, collection_id, streaming_id, cover_url, source_url, streaming_url, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id           int64
		entryUID     string
		title        string
		artistsJSON  string
		releaseYear  sql.NullInt64
		labelsJSON   sql.NullString
		provenance   string
		support      sql.NullString
		collectionID sql.NullString
		streamingID  sql.NullString
		coverURL     sql.NullString
		sourceURL    sql.NullString
		streamingURL sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entryUID,
		&title,
		&artistsJSON,
		&releaseYear,
		&labelsJSON,
		&provenance,
		&support,
		&collectionID,
		&streamingID,
		&coverURL,
		&sourceURL,
		&streamingURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:           id,
		UID:          entryUID,
		Title:        title,
		Provenance:   Provenance(provenance),
		Support:      support.String,
		CollectionID: collectionID.String,
		StreamingID:  streamingID.String,
		CoverURL:     coverURL.String,
		SourceURL:    sourceURL.String,
		StreamingURL: streamingURL.String,
	}
	if releaseYear.Valid {
		entry.Year = int(releaseYear.Int64)
	}
	if artistsJSON != "" {
		if err := json.Unmarshal([]byte(artistsJSON), &entry.Artists); err != nil {
			return nil, fmt.Errorf("unmarshal artists: %w", err)
		}
	}
	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &entry.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
