package schedule

import "strings"

// RefSeparator joins a room and a slot in a "room-slot" reference.
const RefSeparator = "-"

// Room is a configured room and the ordered slots it offers.
type Room struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

// Grid is the configuration-defined structure of the schedule. It is
// authoritative for which rooms and slots exist; the persisted Snapshot is
// authoritative for their content.
type Grid struct {
	Rooms      []Room
	Bookings   []Booking
	Additional []Room
}

// Validate rejects structurally inconsistent grids.
func (g Grid) Validate() error {
	slots, err := validateRooms("rooms", g.Rooms)
	if err != nil {
		return err
	}
	for _, b := range g.Bookings {
		room, slot, track := key(b.Room), key(b.Slot), key(b.Track)
		if track == "" {
			return &ConfigError{Field: "bookings", Reason: "booking of " + room + RefSeparator + slot + " has no track"}
		}
		offered, ok := slots[room]
		if !ok {
			return &ConfigError{Field: "bookings", Reason: "unknown room " + room}
		}
		if !offered[slot] {
			return &ConfigError{Field: "bookings", Reason: "room " + room + " has no slot " + slot}
		}
	}
	if _, err := validateRooms("additional", g.Additional); err != nil {
		return err
	}
	return nil
}

func validateRooms(field string, rooms []Room) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool, len(rooms))
	for _, r := range rooms {
		name := key(r.Name)
		if name == "" {
			return nil, &ConfigError{Field: field, Reason: "room without name"}
		}
		if strings.Contains(name, RefSeparator) {
			return nil, &ConfigError{Field: field, Reason: "room name " + name + " contains " + RefSeparator}
		}
		if _, dup := out[name]; dup {
			return nil, &ConfigError{Field: field, Reason: "duplicate room " + name}
		}
		seen := make(map[string]bool, len(r.Slots))
		for _, s := range r.Slots {
			slot := key(s)
			if slot == "" {
				return nil, &ConfigError{Field: field, Reason: "empty slot in room " + name}
			}
			if seen[slot] {
				return nil, &ConfigError{Field: field, Reason: "duplicate slot " + slot + " in room " + name}
			}
			seen[slot] = true
		}
		out[name] = seen
	}
	return out, nil
}

// merge applies the grid to prev: slots and bookings are replaced by the
// configured ones, booked tracks are registered and the additional grid is
// rebuilt keeping the saved text of every (room, slot) that still exists.
func merge(prev Snapshot, g Grid) Snapshot {
	next := prev.Clone()
	next.normalize()

	next.Slots = make(map[string][]string, len(g.Rooms))
	for _, r := range g.Rooms {
		next.Slots[key(r.Name)] = keys(r.Slots)
	}

	next.Scheduled = make(map[string]map[string]string, len(g.Rooms))
	for _, b := range g.Bookings {
		room, slot, track := key(b.Room), key(b.Slot), key(b.Track)
		if next.Scheduled[room] == nil {
			next.Scheduled[room] = map[string]string{}
		}
		next.Scheduled[room][slot] = track
		next.addTrack(track)
	}

	old := prev.Additional
	next.Additional = make(map[string]map[string]string, len(g.Additional))
	for _, r := range g.Additional {
		room := key(r.Name)
		next.Additional[room] = make(map[string]string, len(r.Slots))
		for _, slot := range keys(r.Slots) {
			next.Additional[room][slot] = old[room][slot]
		}
	}
	return next
}

// ParseRef splits a "room-slot" reference at the first separator.
func ParseRef(ref string) (room, slot string, ok bool) {
	room, slot, found := strings.Cut(key(ref), RefSeparator)
	if !found || room == "" || slot == "" {
		return "", "", false
	}
	return room, slot, true
}
