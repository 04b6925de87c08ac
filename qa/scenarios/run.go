package scenarios

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/ptgbot/core/chat"
	"github.com/kilianp07/ptgbot/core/dispatch"
	coremetrics "github.com/kilianp07/ptgbot/core/metrics"
	"github.com/kilianp07/ptgbot/core/schedule"
	"github.com/kilianp07/ptgbot/infra/logger"
	"github.com/kilianp07/ptgbot/infra/metrics"
	"github.com/kilianp07/ptgbot/infra/mqtt"
)

type transcript struct{ lines []string }

func (tr *transcript) Send(_ context.Context, _ string, line string) error {
	tr.lines = append(tr.lines, line)
	return nil
}

// outcomeCounter counts handled commands per outcome.
type outcomeCounter map[string]int

func (c outcomeCounter) RecordCommand(ev coremetrics.CommandEvent) error {
	c[ev.Outcome]++
	return nil
}

type switchableBackend struct {
	schedule.Backend
	fail bool
}

func (b *switchableBackend) Save(s schedule.Snapshot) error {
	if b.fail {
		return errors.New("disk unavailable")
	}
	return b.Backend.Save(s)
}

//nolint:gocyclo
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	outcomes := outcomeCounter{}
	sink := coremetrics.NewMultiSink(prom, outcomes)

	file, err := schedule.NewFileBackend(filepath.Join(t.TempDir(), "ptg.json"))
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	backend := &switchableBackend{Backend: file}
	store := schedule.New(schedule.Options{Backend: backend, Logger: logger.NopLogger{}, Metrics: sink})
	if err := store.Initialize(sc.Grid()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	roster := mqtt.NewRoster()
	for nick, status := range sc.Members {
		p, err := chat.ParsePrivilege(status)
		if err != nil {
			t.Fatalf("member %s: %v", nick, err)
		}
		roster.Set(sc.Channel, nick, p)
	}

	out := &transcript{}
	d, err := dispatch.NewDispatcher(dispatch.Config{
		Channel:       sc.Channel,
		AllowEveryone: sc.AllowEveryone,
		DocURL:        "https://ptgbot.example.org",
	}, store, out, roster, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	d.SetMetrics(sink)
	grid := sc.Grid()
	d.SetGridSource(func() (schedule.Grid, error) { return grid, nil })

	for i, step := range sc.Steps {
		backend.fail = step.FailSave
		out.lines = nil
		d.Handle(context.Background(), chat.Event{Sender: step.Sender, Channel: sc.Channel, Text: step.Text})
		if !equalLines(out.lines, step.Replies) {
			t.Errorf("step %d %q: replies %q, want %q", i+1, step.Text, out.lines, step.Replies)
		}
	}
	backend.fail = false

	snap := store.Snapshot()
	exp := sc.Expected
	if exp.Tracks != nil && !reflect.DeepEqual(store.ListTracks(), exp.Tracks) {
		t.Errorf("tracks %v, want %v", store.ListTracks(), exp.Tracks)
	}
	for room, slots := range exp.Scheduled {
		for slot, track := range slots {
			if got := snap.Scheduled[room][slot]; got != track {
				t.Errorf("scheduled %s-%s = %q, want %q", room, slot, got, track)
			}
		}
	}
	for track, session := range exp.Now {
		if got := snap.Now[track]; got != session {
			t.Errorf("now[%s] = %q, want %q", track, got, session)
		}
	}
	for track, sessions := range exp.Next {
		if !reflect.DeepEqual(snap.Next[track], sessions) {
			t.Errorf("next[%s] = %v, want %v", track, snap.Next[track], sessions)
		}
	}
	for outcome, want := range exp.Outcomes {
		if outcomes[outcome] != want {
			t.Errorf("outcome %s counted %d, want %d", outcome, outcomes[outcome], want)
		}
	}
	if n, err := testutil.GatherAndCount(reg, "ptgbot_commands_total"); err != nil || (n == 0) != (len(sc.Steps) == 0) {
		t.Errorf("prometheus command series = %d (%v)", n, err)
	}

	persisted, found, err := file.Load()
	if err != nil || !found {
		t.Fatalf("load persisted: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(persisted.Scheduled, snap.Scheduled) || !reflect.DeepEqual(persisted.Now, snap.Now) {
		t.Errorf("persisted state differs from memory")
	}
}

func equalLines(got, want []string) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(got, want)
}
