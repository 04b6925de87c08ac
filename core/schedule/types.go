package schedule

import (
	"sort"
	"strings"
)

// TimestampLayout is the format of Snapshot.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Snapshot is the complete persisted schedule state.
type Snapshot struct {
	Tracks     []string                     `json:"tracks"`
	Slots      map[string][]string          `json:"slots"`
	Now        map[string]string            `json:"now"`
	Next       map[string][]string          `json:"next"`
	Colors     map[string]string            `json:"colors"`
	Location   map[string]string            `json:"location"`
	Scheduled  map[string]map[string]string `json:"scheduled"`
	Additional map[string]map[string]string `json:"additional"`
	Timestamp  string                       `json:"timestamp,omitempty"`
}

// Booking is one entry of the scheduled grid.
type Booking struct {
	Room  string `json:"room"`
	Slot  string `json:"slot"`
	Track string `json:"track"`
}

// Track is a display view of everything known about one track.
type Track struct {
	Name     string    `json:"name"`
	Color    string    `json:"color,omitempty"`
	Location string    `json:"location,omitempty"`
	Now      string    `json:"now,omitempty"`
	Next     []string  `json:"next,omitempty"`
	Bookings []Booking `json:"bookings,omitempty"`
}

// Empty returns the base state used when nothing has been persisted yet.
func Empty() Snapshot {
	return Snapshot{
		Tracks:     []string{},
		Slots:      map[string][]string{},
		Now:        map[string]string{},
		Next:       map[string][]string{},
		Colors:     map[string]string{},
		Location:   map[string]string{},
		Scheduled:  map[string]map[string]string{},
		Additional: map[string]map[string]string{},
	}
}

// normalize fills missing maps, which older files may lack.
func (s *Snapshot) normalize() {
	if s.Tracks == nil {
		s.Tracks = []string{}
	}
	if s.Slots == nil {
		s.Slots = map[string][]string{}
	}
	if s.Now == nil {
		s.Now = map[string]string{}
	}
	if s.Next == nil {
		s.Next = map[string][]string{}
	}
	if s.Colors == nil {
		s.Colors = map[string]string{}
	}
	if s.Location == nil {
		s.Location = map[string]string{}
	}
	if s.Scheduled == nil {
		s.Scheduled = map[string]map[string]string{}
	}
	if s.Additional == nil {
		s.Additional = map[string]map[string]string{}
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tracks:     append([]string{}, s.Tracks...),
		Slots:      make(map[string][]string, len(s.Slots)),
		Now:        make(map[string]string, len(s.Now)),
		Next:       make(map[string][]string, len(s.Next)),
		Colors:     make(map[string]string, len(s.Colors)),
		Location:   make(map[string]string, len(s.Location)),
		Scheduled:  cloneGrid(s.Scheduled),
		Additional: cloneGrid(s.Additional),
		Timestamp:  s.Timestamp,
	}
	for k, v := range s.Slots {
		out.Slots[k] = append([]string{}, v...)
	}
	for k, v := range s.Now {
		out.Now[k] = v
	}
	for k, v := range s.Next {
		out.Next[k] = append([]string{}, v...)
	}
	for k, v := range s.Colors {
		out.Colors[k] = v
	}
	for k, v := range s.Location {
		out.Location[k] = v
	}
	return out
}

func cloneGrid(in map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(in))
	for room, slots := range in {
		m := make(map[string]string, len(slots))
		for k, v := range slots {
			m[k] = v
		}
		out[room] = m
	}
	return out
}

func (s *Snapshot) hasTrack(track string) bool {
	for _, t := range s.Tracks {
		if t == track {
			return true
		}
	}
	return false
}

func (s *Snapshot) addTrack(track string) {
	if !s.hasTrack(track) {
		s.Tracks = append(s.Tracks, track)
	}
}

// removeTrack unregisters track and frees every slot booked for it.
func (s *Snapshot) removeTrack(track string) {
	for i, t := range s.Tracks {
		if t == track {
			s.Tracks = append(s.Tracks[:i], s.Tracks[i+1:]...)
			break
		}
	}
	for _, booked := range s.Scheduled {
		for slot, t := range booked {
			if t == track {
				delete(booked, slot)
			}
		}
	}
}

// validPair reports whether room offers slot in the configured grid.
func (s *Snapshot) validPair(room, slot string) bool {
	for _, sl := range s.Slots[room] {
		if sl == slot {
			return true
		}
	}
	return false
}

// Bookings flattens the scheduled grid, ordered by room then by the room's
// slot order.
func (s Snapshot) Bookings() []Booking {
	rooms := make([]string, 0, len(s.Scheduled))
	for room := range s.Scheduled {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	var out []Booking
	for _, room := range rooms {
		booked := s.Scheduled[room]
		seen := map[string]bool{}
		for _, slot := range s.Slots[room] {
			if track, ok := booked[slot]; ok {
				out = append(out, Booking{Room: room, Slot: slot, Track: track})
				seen[slot] = true
			}
		}
		var rest []string
		for slot := range booked {
			if !seen[slot] {
				rest = append(rest, slot)
			}
		}
		sort.Strings(rest)
		for _, slot := range rest {
			out = append(out, Booking{Room: room, Slot: slot, Track: booked[slot]})
		}
	}
	return out
}

// Track assembles the display view of one track.
func (s Snapshot) Track(name string) (Track, bool) {
	name = key(name)
	if !s.hasTrack(name) {
		return Track{}, false
	}
	t := Track{
		Name:     name,
		Color:    s.Colors[name],
		Location: s.Location[name],
		Now:      s.Now[name],
		Next:     append([]string(nil), s.Next[name]...),
	}
	for _, b := range s.Bookings() {
		if b.Track == name {
			t.Bookings = append(t.Bookings, b)
		}
	}
	return t, true
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func keys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if k := key(s); k != "" {
			out = append(out, k)
		}
	}
	return out
}
