package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"liner/internal/config"
	"liner/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublishCompleted(context.Background(), "digest", 10, 0, "/tmp/a.md"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPublishCompleted(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5
	cfg.Notifications.Publish = true

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublishCompleted(context.Background(), "digest", 10, 2, "/out/album-digest.md"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}

	if captured.title != "Liner - Published" {
		t.Fatalf("unexpected title: %q", captured.title)
	}
	want := "Published digest with 10 albums (2 with fallback text)\nArtifact: /out/album-digest.md"
	if captured.body != want {
		t.Fatalf("unexpected message: %q", captured.body)
	}
	if captured.tags != "liner,publish,completed" {
		t.Fatalf("unexpected tags: %q", captured.tags)
	}
	if captured.priority != "" {
		t.Fatalf("unexpected priority: %q", captured.priority)
	}
}

func TestNtfyServiceFormatsPublishFailed(t *testing.T) {
	var captured struct {
		priority string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true

	svc := notifications.NewService(&cfg)
	err := svc.NotifyPublishFailed(context.Background(), "album-of-day", "write-failure", errors.New("disk full"))
	if err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.body != "Publish run (album-of-day) failed: write-failure\ndisk full" {
		t.Fatalf("unexpected message: %q", captured.body)
	}
	if captured.priority != "high" {
		t.Fatalf("expected high priority, got %q", captured.priority)
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Publish = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublishCompleted(context.Background(), "digest", 1, 0, ""); err != nil {
		t.Fatalf("suppressed publish notification errored: %v", err)
	}
	if err := svc.NotifyPublishFailed(context.Background(), "digest", "write-failure", nil); err != nil {
		t.Fatalf("suppressed failure notification errored: %v", err)
	}
}
