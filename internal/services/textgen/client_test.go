package textgen_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"liner/internal/services/textgen"
)

func TestCompleteReturnsMessageContent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A landmark modal jazz session."}}]}`))
	}))
	defer server.Close()

	client := textgen.NewClient(textgen.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})

	content, err := client.Complete(context.Background(), "Describe the album")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "A landmark modal jazz session." {
		t.Fatalf("unexpected content: %q", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestCompleteToleratesDeltaSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"line one"}}]}`))
	}))
	defer server.Close()

	client := textgen.NewClient(textgen.Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	content, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "line one" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := textgen.NewClient(textgen.Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "prompt")

	var statusErr *textgen.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", statusErr.StatusCode)
	}
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer server.Close()

	client := textgen.NewClient(textgen.Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "prompt")

	var badErr *textgen.BadResponseError
	if !errors.As(err, &badErr) {
		t.Fatalf("expected BadResponseError, got %v", err)
	}
}

func TestCompleteRejectsUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := textgen.NewClient(textgen.Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "prompt")

	var badErr *textgen.BadResponseError
	if !errors.As(err, &badErr) {
		t.Fatalf("expected BadResponseError, got %v", err)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := textgen.NewClient(textgen.Config{Model: "m"})
	if _, err := client.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error without api key")
	}
	if client.Configured() {
		t.Fatal("expected Configured to be false")
	}
}
