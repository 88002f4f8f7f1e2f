package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"liner/internal/fileutil"
)

const historyStampLayout = "2006-01-02-150405"

// artifactWriter owns the published file and its dated history copies.
type artifactWriter struct {
	dir    string
	name   string
	retain int
	now    func() time.Time
}

// write atomically replaces the published artifact, snapshots a dated copy,
// and prunes history copies beyond the retention count. It returns the
// published path.
func (w *artifactWriter) write(document string) (string, error) {
	path := filepath.Join(w.dir, w.name+".md")
	if err := fileutil.WriteFileAtomic(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	stamp := w.now().UTC().Format(historyStampLayout)
	historyPath := filepath.Join(w.dir, fmt.Sprintf("%s-%s.md", w.name, stamp))
	if err := fileutil.CopyFile(path, historyPath); err != nil {
		return "", fmt.Errorf("write history copy: %w", err)
	}

	if err := w.prune(); err != nil {
		return "", fmt.Errorf("prune history: %w", err)
	}
	return path, nil
}

// prune keeps the newest retain history copies and removes the rest. A
// retain value of 0 disables pruning.
func (w *artifactWriter) prune() error {
	if w.retain <= 0 {
		return nil
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	prefix := w.name + "-"
	var history []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".md") {
			history = append(history, name)
		}
	}
	if len(history) <= w.retain {
		return nil
	}
	// Dated names sort chronologically.
	sort.Strings(history)
	for _, name := range history[:len(history)-w.retain] {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			return err
		}
	}
	return nil
}
