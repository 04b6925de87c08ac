package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/ptgbot/core/metrics"
)

func TestPromSink_RecordCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	for _, ev := range []coremetrics.CommandEvent{
		{Kind: "book", Outcome: "ok", Duration: 5 * time.Millisecond},
		{Kind: "book", Outcome: "ok", Duration: 7 * time.Millisecond},
		{Kind: "unbook", Outcome: "unauthorized"},
		{Outcome: "parse_error"},
	} {
		if err := sink.RecordCommand(ev); err != nil {
			t.Fatalf("record error: %v", err)
		}
	}

	expected := `
# HELP ptgbot_commands_total Total number of handled chat commands
# TYPE ptgbot_commands_total counter
ptgbot_commands_total{kind="book",outcome="ok"} 2
ptgbot_commands_total{kind="none",outcome="parse_error"} 1
ptgbot_commands_total{kind="unbook",outcome="unauthorized"} 1
`
	if err := testutil.CollectAndCompare(sink.commands, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 3 {
		t.Errorf("latency series = %d, want 3", c)
	}
}

func TestPromSink_RecordPersist(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordPersist(coremetrics.PersistEvent{Op: "book", Duration: time.Millisecond, Attempts: 1})
	_ = sink.RecordPersist(coremetrics.PersistEvent{Op: "book", Duration: time.Second, Attempts: 3, Err: errors.New("io")})

	if v := testutil.ToFloat64(sink.failures.WithLabelValues("book")); v != 1 {
		t.Errorf("failures = %v, want 1", v)
	}
	if c := testutil.CollectAndCount(sink.persist); c != 1 {
		t.Errorf("persist series = %d, want 1", c)
	}
}

func TestPromSink_RecordSchedule(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordSchedule(coremetrics.ScheduleEvent{Tracks: 5, Bookings: 3, Now: 2}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(sink.tracks); v != 5 {
		t.Errorf("tracks = %v", v)
	}
	if v := testutil.ToFloat64(sink.bookings); v != 3 {
		t.Errorf("bookings = %v", v)
	}
	if v := testutil.ToFloat64(sink.live); v != 2 {
		t.Errorf("live = %v", v)
	}
}

func TestPromSink_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = first.RecordCommand(coremetrics.CommandEvent{Kind: "list", Outcome: "ok"})
	_ = second.RecordCommand(coremetrics.CommandEvent{Kind: "list", Outcome: "ok"})
	if v := testutil.ToFloat64(first.commands.WithLabelValues("list", "ok")); v != 2 {
		t.Errorf("shared counter = %v, want 2", v)
	}
}
