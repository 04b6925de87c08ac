package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordCommand(CommandEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordPersist(PersistEvent) error {
	r.count++
	return nil
}

type commandOnly struct{ count int }

func (c *commandOnly) RecordCommand(CommandEvent) error {
	c.count++
	return nil
}

type failSink struct{}

func (failSink) RecordCommand(CommandEvent) error { return errors.New("boom") }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordCommand(CommandEvent{Kind: "book"}); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := m.RecordPersist(PersistEvent{Op: "book"}); err != nil {
		t.Fatalf("record persist: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}

func TestMultiSinkSkipsMissingRecorders(t *testing.T) {
	c := &commandOnly{}
	m := NewMultiSink(c)
	if err := m.RecordPersist(PersistEvent{}); err != nil {
		t.Fatalf("record persist: %v", err)
	}
	if err := m.RecordSchedule(ScheduleEvent{}); err != nil {
		t.Fatalf("record schedule: %v", err)
	}
	if c.count != 0 {
		t.Fatalf("unexpected forward")
	}
}

func TestMultiSinkFirstError(t *testing.T) {
	after := &recordSink{}
	m := NewMultiSink(failSink{}, after)
	if err := m.RecordCommand(CommandEvent{}); err == nil {
		t.Fatalf("expected error")
	}
	if after.count != 0 {
		t.Fatalf("sink after failure should not be called")
	}
}

func TestCombine(t *testing.T) {
	if _, ok := Combine().(NopSink); !ok {
		t.Fatalf("expected NopSink")
	}
	one := &recordSink{}
	if Combine(one) != one {
		t.Fatalf("expected single sink")
	}
	if _, ok := Combine(one, &recordSink{}).(*MultiSink); !ok {
		t.Fatalf("expected MultiSink")
	}
}
