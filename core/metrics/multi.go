package metrics

// MultiSink fans events out to multiple sinks. Sinks that do not implement
// an optional recorder are skipped for that event.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCommand forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordCommand(ev CommandEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCommand(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPersist forwards save events.
func (m *MultiSink) RecordPersist(ev PersistEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PersistRecorder); ok {
			if err := rec.RecordPersist(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSchedule forwards schedule summaries.
func (m *MultiSink) RecordSchedule(ev ScheduleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ScheduleRecorder); ok {
			if err := rec.RecordSchedule(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Combine returns the single sink, a MultiSink or a NopSink depending on
// how many sinks are given.
func Combine(sinks ...MetricsSink) MetricsSink {
	switch len(sinks) {
	case 0:
		return NopSink{}
	case 1:
		return sinks[0]
	default:
		return NewMultiSink(sinks...)
	}
}
