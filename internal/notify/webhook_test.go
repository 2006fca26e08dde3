package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/antoniostano/helpdesk/internal/complaint"
)

func TestWebhookNotifierPostsRecord(t *testing.T) {
	var (
		got         complaint.Record
		contentType string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	rec := complaint.Record{Name: "Jane", IssueType: "Water", Location: "Elm St", Description: "leak", Phone: "5551234567", Timestamp: "2026-10-15T09:30:00.000000Z"}
	n := NewWebhookNotifier(ts.URL, time.Second, nil)
	if err := n.Notify(context.Background(), rec); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got != rec {
		t.Fatalf("webhook body = %+v, want %+v", got, rec)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q", contentType)
	}
}

func TestWebhookNotifierStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := NewWebhookNotifier(ts.URL, time.Second, nil).Notify(context.Background(), complaint.Record{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable || !statusErr.Retryable() {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestWebhookNotifierTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	err := NewWebhookNotifier(ts.URL, 50*time.Millisecond, nil).Notify(context.Background(), complaint.Record{})
	if err == nil {
		t.Fatalf("Notify() expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Notify() took %v, timeout not applied", time.Since(start))
	}
}
