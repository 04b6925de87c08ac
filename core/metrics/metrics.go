package metrics

import "time"

// CommandEvent records one handled chat command.
type CommandEvent struct {
	Kind     string
	Outcome  string
	Channel  string
	Sender   string
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records handled commands.
type MetricsSink interface {
	RecordCommand(ev CommandEvent) error
}

// PersistEvent records one save of the schedule file.
type PersistEvent struct {
	Op       string
	Duration time.Duration
	Attempts int
	Err      error
	Time     time.Time
}

// PersistRecorder records schedule saves.
type PersistRecorder interface {
	RecordPersist(ev PersistEvent) error
}

// ScheduleEvent summarizes the schedule after a committed change.
type ScheduleEvent struct {
	Op       string
	Tracks   int
	Bookings int
	Now      int
	Next     int
	Time     time.Time
}

// ScheduleRecorder records schedule summaries.
type ScheduleRecorder interface {
	RecordSchedule(ev ScheduleEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCommand(CommandEvent) error   { return nil }
func (NopSink) RecordPersist(PersistEvent) error   { return nil }
func (NopSink) RecordSchedule(ScheduleEvent) error { return nil }
