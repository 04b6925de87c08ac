package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/ptgbot/core/logger"
	"github.com/kilianp07/ptgbot/core/metrics"
)

// Change describes a committed mutation.
type Change struct {
	Op       string
	Snapshot Snapshot
	Time     time.Time
}

// ChangePublisher receives committed changes. *eventbus.Bus[Change]
// satisfies it.
type ChangePublisher interface {
	Publish(Change)
}

// Options configures a Store.
type Options struct {
	Backend Backend
	// Retries is the number of additional save attempts after a failure.
	Retries int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
	Now     func() time.Time
	Logger  logger.Logger
	Metrics metrics.PersistRecorder
	Changes ChangePublisher
}

// Store owns the schedule state. It is safe for concurrent use; mutations
// are serialized and each one ends with a full save.
type Store struct {
	mu      sync.RWMutex
	data    Snapshot
	backend Backend
	retries int
	backoff time.Duration
	now     func() time.Time
	log     logger.Logger
	metrics metrics.PersistRecorder
	changes ChangePublisher
}

// New creates a Store holding the empty base state. Call Initialize to
// load the persisted snapshot and apply the configured grid.
func New(opts Options) *Store {
	s := &Store{
		data:    Empty(),
		backend: opts.Backend,
		retries: opts.Retries,
		backoff: opts.Backoff,
		now:     opts.Now,
		log:     opts.Logger,
		metrics: opts.Metrics,
		changes: opts.Changes,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NopSink{}
	}
	if s.retries < 0 {
		s.retries = 0
	}
	return s
}

// Initialize loads the last saved snapshot, or the empty base when none
// exists, merges the configured grid into it and saves the result.
func (s *Store) Initialize(g Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	base := Empty()
	if s.backend != nil {
		prev, found, err := s.backend.Load()
		if err != nil {
			return &StorageError{Op: "load", Err: err}
		}
		if found {
			base = prev
		}
	}
	next := merge(base, g)
	if err := s.commitLocked("initialize", next); err != nil {
		return err
	}
	s.log.Infof("schedule initialized: %d rooms, %d tracks", len(next.Slots), len(next.Tracks))
	return nil
}

// AddNow sets the current session of track and drops its queued next
// sessions.
func (s *Store) AddNow(track, session string) error {
	track = key(track)
	return s.mutate("add_now", func(d *Snapshot) {
		d.Now[track] = session
		delete(d.Next, track)
	})
}

// AddNext queues session after the ones already queued for track.
func (s *Store) AddNext(track, session string) error {
	track = key(track)
	return s.mutate("add_next", func(d *Snapshot) {
		d.Next[track] = append(d.Next[track], session)
	})
}

func (s *Store) AddColor(track, color string) error {
	track = key(track)
	return s.mutate("add_color", func(d *Snapshot) {
		d.Colors[track] = color
	})
}

func (s *Store) AddLocation(track, location string) error {
	track = key(track)
	return s.mutate("add_location", func(d *Snapshot) {
		d.Location[track] = location
	})
}

func (s *Store) IsTrackValid(track string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.hasTrack(key(track))
}

// ListTracks returns the registered tracks in sorted order.
func (s *Store) ListTracks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]string{}, s.data.Tracks...)
	sort.Strings(out)
	return out
}

func (s *Store) AddTracks(names ...string) error {
	names = keys(names)
	return s.mutate("add_tracks", func(d *Snapshot) {
		for _, n := range names {
			d.addTrack(n)
		}
	})
}

// DelTracks removes names from the registry along with their bookings;
// unknown names are ignored.
func (s *Store) DelTracks(names ...string) error {
	names = keys(names)
	return s.mutate("del_tracks", func(d *Snapshot) {
		for _, n := range names {
			d.removeTrack(n)
		}
	})
}

// CleanTracks clears the now and next entries of names, keeping the tracks
// registered.
func (s *Store) CleanTracks(names ...string) error {
	names = keys(names)
	return s.mutate("clean_tracks", func(d *Snapshot) {
		for _, n := range names {
			delete(d.Now, n)
			delete(d.Next, n)
		}
	})
}

// NewDay clears the live status of every track.
func (s *Store) NewDay() error {
	return s.mutate("new_day", func(d *Snapshot) {
		d.Now = map[string]string{}
		d.Next = map[string][]string{}
	})
}

// Wipe resets everything to the empty base. The configured grid is not
// reapplied; call Initialize for that.
func (s *Store) Wipe() error {
	return s.mutate("wipe", func(d *Snapshot) {
		*d = Empty()
	})
}

// ValidPair reports whether room offers slot.
func (s *Store) ValidPair(room, slot string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.validPair(key(room), key(slot))
}

// Book assigns track to (room, slot), replacing any previous booking, and
// registers the track. It returns false without changing anything when
// the pair is not part of the configured grid.
func (s *Store) Book(room, slot, track string) (bool, error) {
	room, slot, track = key(room), key(slot), key(track)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.data.validPair(room, slot) || track == "" {
		return false, nil
	}
	next := s.data.Clone()
	if next.Scheduled[room] == nil {
		next.Scheduled[room] = map[string]string{}
	}
	next.Scheduled[room][slot] = track
	next.addTrack(track)
	if err := s.commitLocked("book", next); err != nil {
		return false, err
	}
	return true, nil
}

// Unbook frees (room, slot). Removing an absent booking is a no-op.
func (s *Store) Unbook(room, slot string) error {
	room, slot = key(room), key(slot)
	return s.mutate("unbook", func(d *Snapshot) {
		if booked, ok := d.Scheduled[room]; ok {
			delete(booked, slot)
		}
	})
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *Store) mutate(op string, fn func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.Clone()
	fn(&next)
	return s.commitLocked(op, next)
}

// commitLocked saves next and, only if that succeeds, makes it current.
// The caller holds the write lock.
func (s *Store) commitLocked(op string, next Snapshot) error {
	now := s.now()
	next.Timestamp = now.Format(TimestampLayout)
	sort.Strings(next.Tracks)
	if err := s.save(op, next); err != nil {
		return err
	}
	s.data = next
	if s.changes != nil {
		s.changes.Publish(Change{Op: op, Snapshot: next.Clone(), Time: now})
	}
	return nil
}

func (s *Store) save(op string, snap Snapshot) error {
	if s.backend == nil {
		return nil
	}
	start := time.Now()
	var err error
	attempts := 0
	for attempt := 0; attempt <= s.retries; attempt++ {
		attempts++
		if err = s.backend.Save(snap); err == nil {
			break
		}
		s.log.Warnf("save attempt %d for %s failed: %v", attempt+1, op, err)
		if attempt < s.retries && s.backoff > 0 {
			time.Sleep(s.backoff * time.Duration(1<<attempt))
		}
	}
	if rerr := s.metrics.RecordPersist(metrics.PersistEvent{
		Op:       op,
		Duration: time.Since(start),
		Attempts: attempts,
		Err:      err,
		Time:     start,
	}); rerr != nil {
		s.log.Warnf("record persist metric: %v", rerr)
	}
	if err != nil {
		s.log.Errorf("schedule not saved after %d attempts (%s): %v", attempts, op, err)
		return &StorageError{Op: op, Err: err}
	}
	return nil
}
