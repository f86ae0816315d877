package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func webhookServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var messages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode webhook payload: %v", err)
		}
		messages = append(messages, payload["content"])
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &messages
}

func TestSendDeliversContent(t *testing.T) {
	srv, messages := webhookServer(t, http.StatusNoContent)

	n := NewNotifier(srv.URL)
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*messages) != 1 || (*messages)[0] != "hello" {
		t.Errorf("messages = %v", *messages)
	}
}

func TestSendNon204IsError(t *testing.T) {
	srv, _ := webhookServer(t, http.StatusBadRequest)

	n := NewNotifier(srv.URL)
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestDisabledNotifierIsNoOp(t *testing.T) {
	n := NewNotifier("")
	if n.Enabled() {
		t.Error("notifier with empty URL should be disabled")
	}
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Errorf("disabled Send should be nil, got %v", err)
	}
}

func TestPostSuccessMessage(t *testing.T) {
	srv, messages := webhookServer(t, http.StatusNoContent)

	n := NewNotifier(srv.URL)
	n.PostSuccess(context.Background(), "Big AI News", 7, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	if len(*messages) != 1 {
		t.Fatalf("got %d messages", len(*messages))
	}
	msg := (*messages)[0]
	for _, want := range []string{"Big AI News", "7/9", "2026-05-01 09:00:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
}

func TestStatusUpdateProgressBar(t *testing.T) {
	srv, messages := webhookServer(t, http.StatusNoContent)

	n := NewNotifier(srv.URL)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	n.StatusUpdate(context.Background(), 3, 90*time.Minute, 50, now, now.Add(90*time.Minute), "Next post")

	msg := (*messages)[0]
	if !strings.Contains(msg, "Status Update #3") {
		t.Errorf("message missing update number: %s", msg)
	}
	if !strings.Contains(msg, "1h 30m until Next post") {
		t.Errorf("message missing remaining time: %s", msg)
	}
	if !strings.Contains(msg, strings.Repeat("█", 10)+strings.Repeat("░", 10)) {
		t.Errorf("message missing half-full progress bar: %s", msg)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "30 minutes"},
		{59 * time.Minute, "59 minutes"},
		{time.Hour, "1h 0m"},
		{90 * time.Minute, "1h 30m"},
		{25*time.Hour + 5*time.Minute, "25h 5m"},
		{-time.Minute, "0 minutes"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
