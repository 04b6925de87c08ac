package logging

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogRecord_JSON(t *testing.T) {
	rec := LogRecord{
		ID:        "id-1",
		Timestamp: time.Unix(0, 0),
		Sender:    "alice",
		Channel:   "#ptg",
		Text:      "#nova book a-1",
		Kind:      "book",
		Outcome:   "ok",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"id", "timestamp", "sender", "channel", "text", "kind", "outcome"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if _, ok := m["error"]; ok {
		t.Errorf("empty error should be omitted")
	}
}

func TestLogQueryMatch(t *testing.T) {
	now := time.Now()
	rec := LogRecord{Timestamp: now, Sender: "alice", Kind: "book", Outcome: "ok"}
	cases := []struct {
		q    LogQuery
		want bool
	}{
		{LogQuery{}, true},
		{LogQuery{Sender: "alice", Kind: "book"}, true},
		{LogQuery{Sender: "bob"}, false},
		{LogQuery{Outcome: "unauthorized"}, false},
		{LogQuery{Start: now.Add(time.Minute)}, false},
		{LogQuery{End: now.Add(-time.Minute)}, false},
	}
	for i, c := range cases {
		if got := c.q.Match(rec); got != c.want {
			t.Errorf("case %d: got %v", i, got)
		}
	}
}

func TestJSONLStore(t *testing.T) {
	store, err := New(Options{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "audit.jsonl")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = store.Close() }()
	for _, s := range []string{"alice", "bob", "alice"} {
		if err := store.Append(context.Background(), LogRecord{Timestamp: time.Now(), Sender: s}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), LogQuery{Sender: "alice"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
}

func TestJSONLStoreLongRecord(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	long := strings.Repeat("y", 256*1024)
	ctx := context.Background()
	if err := store.Append(ctx, LogRecord{Timestamp: time.Now(), Sender: "alice", Text: long}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, LogRecord{Timestamp: time.Now(), Sender: "bob", Text: "short"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(ctx, LogQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[0].Text != long {
		t.Fatalf("expected both records back, got %d", len(out))
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "csv", Path: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}
