package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"liner/internal/config"
)

const userAgent = "Liner-Go/0.1.0"

// Service defines the notification surface exposed to the publisher.
type Service interface {
	NotifyPublishCompleted(ctx context.Context, kind string, entries, degraded int, artifact string) error
	NotifyPublishFailed(ctx context.Context, kind, errorKind string, err error) error
	NotifyCatalogImported(ctx context.Context, ingested, skipped int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		notifyPublish: cfg.Notifications.Publish,
		notifyErrors:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	notifyPublish bool
	notifyErrors  bool
}

func (n *ntfyService) NotifyPublishCompleted(ctx context.Context, kind string, entries, degraded int, artifact string) error {
	if !n.notifyPublish {
		return nil
	}
	message := fmt.Sprintf("Published %s with %d albums", strings.TrimSpace(kind), entries)
	if degraded > 0 {
		message = fmt.Sprintf("%s (%d with fallback text)", message, degraded)
	}
	if artifact = strings.TrimSpace(artifact); artifact != "" {
		message = fmt.Sprintf("%s\nArtifact: %s", message, artifact)
	}
	data := payload{
		title:   "Liner - Published",
		message: message,
		tags:    []string{"liner", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishFailed(ctx context.Context, kind, errorKind string, err error) error {
	if !n.notifyErrors {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "Publish run (%s) failed", strings.TrimSpace(kind))
	if errorKind = strings.TrimSpace(errorKind); errorKind != "" {
		builder.WriteString(": " + errorKind)
	}
	if err != nil {
		builder.WriteString("\n" + strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Liner - Publish Failed",
		message:  builder.String(),
		tags:     []string{"liner", "publish", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCatalogImported(ctx context.Context, ingested, skipped int) error {
	if !n.notifyPublish {
		return nil
	}
	message := fmt.Sprintf("Imported %d catalog entries", ingested)
	if skipped > 0 {
		message = fmt.Sprintf("%s (%d skipped)", message, skipped)
	}
	data := payload{
		title:   "Liner - Catalog Import",
		message: message,
		tags:    []string{"liner", "catalog", "import"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Liner - Test",
		message:  "Notification system test",
		tags:     []string{"liner", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPublishCompleted(context.Context, string, int, int, string) error {
	return nil
}
func (noopService) NotifyPublishFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyCatalogImported(context.Context, int, int) error            { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
