// Package scenarios replays scripted channel transcripts against a fully
// wired dispatcher and checks the replies and the resulting schedule.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ptgbot/core/schedule"
)

type RoomDef struct {
	Name  string   `yaml:"name"`
	Slots []string `yaml:"slots"`
}

type BookingDef struct {
	Room  string `yaml:"room"`
	Slot  string `yaml:"slot"`
	Track string `yaml:"track"`
}

// Step is one channel message and the replies it must produce, in order.
// FailSave makes every save attempt during the step fail.
type Step struct {
	Sender   string   `yaml:"sender"`
	Text     string   `yaml:"text"`
	Replies  []string `yaml:"replies"`
	FailSave bool     `yaml:"fail_save,omitempty"`
}

type Expected struct {
	Tracks    []string                     `yaml:"tracks,omitempty"`
	Scheduled map[string]map[string]string `yaml:"scheduled,omitempty"`
	Now       map[string]string            `yaml:"now,omitempty"`
	Next      map[string][]string          `yaml:"next,omitempty"`
	// Outcomes counts handled commands per outcome label.
	Outcomes map[string]int `yaml:"outcomes,omitempty"`
}

type Scenario struct {
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description,omitempty"`
	Channel       string       `yaml:"channel"`
	Rooms         []RoomDef    `yaml:"rooms"`
	Bookings      []BookingDef `yaml:"bookings,omitempty"`
	Additional    []RoomDef    `yaml:"additional,omitempty"`
	AllowEveryone bool         `yaml:"allow_everyone,omitempty"`
	// Members maps nicks to their channel status: voiced or operator.
	Members  map[string]string `yaml:"members,omitempty"`
	Steps    []Step            `yaml:"steps"`
	Expected Expected          `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Channel == "" {
		sc.Channel = "#ptg"
	}
	return &sc, nil
}

// Grid converts the room definitions for the schedule store.
func (sc *Scenario) Grid() schedule.Grid {
	var g schedule.Grid
	for _, r := range sc.Rooms {
		g.Rooms = append(g.Rooms, schedule.Room{Name: r.Name, Slots: r.Slots})
	}
	for _, r := range sc.Additional {
		g.Additional = append(g.Additional, schedule.Room{Name: r.Name, Slots: r.Slots})
	}
	for _, b := range sc.Bookings {
		g.Bookings = append(g.Bookings, schedule.Booking{Room: b.Room, Slot: b.Slot, Track: b.Track})
	}
	return g
}
