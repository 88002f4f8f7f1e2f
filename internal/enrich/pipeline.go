// Package enrich turns a batch of catalog entries into description and haiku
// texts via the gateway, substituting deterministic fallback text whenever a
// call fails or the response violates the expected shape. The batch never
// aborts; degradation is carried per field in the Text sum type.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"liner/internal/catalog"
	"liner/internal/gateway"
	"liner/internal/logging"
)

// ReasonMalformed marks an upstream response rejected for violating the
// expected text shape.
const ReasonMalformed = "malformed-generated-text"

const defaultMaxWords = 35

// Generator is the protected text completion dependency.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result pairs one catalog entry with its enrichment texts. Description and
// haiku are independently generated or fallback; Degraded reports whether
// either fell back.
type Result struct {
	Entry       *catalog.Entry
	Description Text
	Haiku       Text
	GeneratedAt time.Time
	Reasons     []string
}

// Degraded reports whether any field carries fallback text.
func (r *Result) Degraded() bool {
	return r.Description.IsFallback() || r.Haiku.IsFallback()
}

// Options tune the pipeline.
type Options struct {
	MaxDescriptionWords int
	Logger              *slog.Logger
	Clock               func() time.Time
}

// Pipeline enriches batches sequentially, preserving input order.
type Pipeline struct {
	gen      Generator
	maxWords int
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs an enrichment pipeline around the given generator.
func New(gen Generator, opts Options) *Pipeline {
	p := &Pipeline{
		gen:      gen,
		maxWords: opts.MaxDescriptionWords,
		logger:   opts.Logger,
		now:      opts.Clock,
	}
	if p.maxWords <= 0 {
		p.maxWords = defaultMaxWords
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Enrich produces one result per input entry, in input order. The context
// carries the run's time budget: once it expires, remaining entries receive
// fallback text without further gateway calls.
func (p *Pipeline) Enrich(ctx context.Context, entries []*catalog.Entry) []Result {
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, p.enrichOne(ctx, entry))
	}
	return results
}

func (p *Pipeline) enrichOne(ctx context.Context, entry *catalog.Entry) Result {
	result := Result{Entry: entry, GeneratedAt: p.now().UTC()}

	if ctx.Err() != nil {
		result.Description = Fallback(fallbackDescription)
		result.Haiku = Fallback(fallbackHaiku)
		result.Reasons = append(result.Reasons, string(gateway.FailureTimeout))
		p.logger.Warn("enrichment budget exhausted, using fallback",
			logging.String(logging.FieldEntryUID, entry.UID),
			logging.String(logging.FieldEventType, "enrich_budget_exhausted"),
		)
		return result
	}

	result.Description = p.describe(ctx, entry, &result)
	result.Haiku = p.compose(ctx, &result)
	return result
}

func (p *Pipeline) describe(ctx context.Context, entry *catalog.Entry, result *Result) Text {
	prompt := descriptionPrompt(entry.Title, entry.PrimaryArtist(), p.maxWords)
	content, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		p.recordFailure(result, entry, "description", err)
		return Fallback(fallbackDescription)
	}
	return Generated(truncateWords(collapseWhitespace(content), p.maxWords))
}

func (p *Pipeline) compose(ctx context.Context, result *Result) Text {
	entry := result.Entry
	content, err := p.gen.Generate(ctx, haikuPrompt)
	if err != nil {
		p.recordFailure(result, entry, "haiku", err)
		return Fallback(fallbackHaiku)
	}
	haiku, err := validateHaiku(content)
	if err != nil {
		result.Reasons = append(result.Reasons, ReasonMalformed)
		p.logger.Warn("generated haiku rejected, using fallback",
			logging.String(logging.FieldEntryUID, entry.UID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "enrich_malformed_text"),
		)
		return Fallback(fallbackHaiku)
	}
	return Generated(haiku)
}

func (p *Pipeline) recordFailure(result *Result, entry *catalog.Entry, field string, err error) {
	reason := string(gateway.FailureTransport)
	if kind, ok := gateway.KindOf(err); ok {
		reason = string(kind)
	}
	result.Reasons = append(result.Reasons, reason)
	p.logger.Warn("enrichment call failed, using fallback",
		logging.String(logging.FieldEntryUID, entry.UID),
		logging.String("field", field),
		logging.String("reason", reason),
		logging.Error(err),
		logging.String(logging.FieldEventType, "enrich_fallback"),
	)
}

// validateHaiku accepts exactly three non-empty lines and returns them
// joined by single newlines.
func validateHaiku(content string) (string, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) != 3 {
		return "", fmt.Errorf("expected 3 non-empty lines, got %d", len(lines))
	}
	return strings.Join(lines, "\n"), nil
}

func collapseWhitespace(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

func truncateWords(content string, maxWords int) string {
	words := strings.Fields(content)
	if len(words) <= maxWords {
		return content
	}
	return strings.Join(words[:maxWords], " ")
}
