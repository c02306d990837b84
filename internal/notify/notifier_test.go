package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSender records every payload and optionally fails each Send.
type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifierEventFilter(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, []string{"report", "error"}, testLogger())

	ctx := context.Background()
	if err := n.Notify(ctx, EventReport, "a report"); err != nil {
		t.Fatalf("Notify(report) = %v", err)
	}
	if err := n.Notify(ctx, EventEmpty, "nothing found"); err != nil {
		t.Fatalf("Notify(empty) = %v", err)
	}
	if err := n.Notify(ctx, EventError, "scan failed"); err != nil {
		t.Fatalf("Notify(error) = %v", err)
	}

	want := []string{"a report", "scan failed"}
	if !reflect.DeepEqual(sender.sent, want) {
		t.Errorf("sent = %v, want %v", sender.sent, want)
	}
}

func TestNotifierEmptyEventListAllowsAll(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	ctx := context.Background()
	for _, event := range []string{EventReport, EventEmpty, EventError} {
		if err := n.Notify(ctx, event, event); err != nil {
			t.Fatalf("Notify(%s) = %v", event, err)
		}
	}

	if len(sender.sent) != 3 {
		t.Errorf("sent = %v, want all three events", sender.sent)
	}
}

func TestNotifierCollectsSenderErrors(t *testing.T) {
	broken := &fakeSender{name: "broken", err: errors.New("boom")}
	healthy := &fakeSender{name: "healthy"}
	n := NewNotifier([]Sender{broken, healthy}, nil, testLogger())

	err := n.Notify(context.Background(), EventReport, "hello")

	if err == nil {
		t.Fatal("Notify() = nil, want combined error")
	}
	if !strings.Contains(err.Error(), "broken: boom") {
		t.Errorf("error = %v, want the failing sender named", err)
	}
	// A failing sender never blocks the others.
	if len(healthy.sent) != 1 {
		t.Errorf("healthy.sent = %v, want delivery despite sibling failure", healthy.sent)
	}
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.Notify(context.Background(), EventReport, "into the void"); err != nil {
		t.Errorf("Notify() with no senders = %v, want nil", err)
	}
}

func TestConsoleSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSender(&buf)

	if err := s.Send(context.Background(), "digest body"); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if got := buf.String(); got != "digest body\n" {
		t.Errorf("output = %q, want the text plus newline", got)
	}
	if s.Name() != "console" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestTelegramSender(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		io.WriteString(w, `{"ok": true}`)
	}))
	defer srv.Close()

	orig := telegramAPIHost
	telegramAPIHost = srv.URL
	defer func() { telegramAPIHost = orig }()

	s := NewTelegramSender("bot-token", "chat-42")
	if err := s.Send(context.Background(), "*hello*"); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	want := map[string]string{"chat_id": "chat-42", "text": "*hello*", "parse_mode": "Markdown"}
	for k, v := range want {
		if gotPayload[k] != v {
			t.Errorf("payload[%q] = %q, want %q", k, gotPayload[k], v)
		}
	}
}

func TestTelegramSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false, "description": "chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	orig := telegramAPIHost
	telegramAPIHost = srv.URL
	defer func() { telegramAPIHost = orig }()

	s := NewTelegramSender("bot-token", "chat-42")
	err := s.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Send() = %v, want status error with response body", err)
	}
}

func TestDiscordSender(t *testing.T) {
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "digest"); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if gotPayload["content"] != "digest" {
		t.Errorf("payload = %v, want content=digest", gotPayload)
	}
}
