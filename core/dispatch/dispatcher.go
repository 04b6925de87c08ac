// Package dispatch turns channel messages into schedule operations. Each
// message runs through the parser, the authorization gate and the store,
// and produces the reply lines sent back to the channel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ptgbot/core/chat"
	"github.com/kilianp07/ptgbot/core/command"
	"github.com/kilianp07/ptgbot/core/dispatch/logging"
	"github.com/kilianp07/ptgbot/core/logger"
	"github.com/kilianp07/ptgbot/core/metrics"
	"github.com/kilianp07/ptgbot/core/monitoring"
	"github.com/kilianp07/ptgbot/core/schedule"
)

// Outcomes recorded for every handled command.
const (
	OutcomeOK           = "ok"
	OutcomeParseError   = "parse_error"
	OutcomeUnknown      = "unknown_directive"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeStorageError = "storage_error"
	OutcomeError        = "error"
)

// ScheduleStore is the part of *schedule.Store the dispatcher drives.
type ScheduleStore interface {
	Initialize(g schedule.Grid) error
	AddNow(track, session string) error
	AddNext(track, session string) error
	AddColor(track, color string) error
	AddLocation(track, location string) error
	IsTrackValid(track string) bool
	ListTracks() []string
	AddTracks(names ...string) error
	DelTracks(names ...string) error
	CleanTracks(names ...string) error
	NewDay() error
	ValidPair(room, slot string) bool
	Book(room, slot, track string) (bool, error)
	Unbook(room, slot string) error
}

// GridSource returns the current room/slot configuration for ~reload.
type GridSource func() (schedule.Grid, error)

// Dispatcher handles one event at a time. The only state it keeps between
// messages is the voice requirement toggle.
type Dispatcher struct {
	cfg          Config
	store        ScheduleStore
	replier      chat.Replier
	gate         command.Gate
	log          logger.Logger
	grid         GridSource
	audit        logging.LogStore
	metrics      metrics.MetricsSink
	requireVoice atomic.Bool
}

// NewDispatcher creates a Dispatcher. privileges is queried on every
// command that needs voice or operator status.
func NewDispatcher(cfg Config, store ScheduleStore, replier chat.Replier, privileges chat.PrivilegeSource, log logger.Logger) (*Dispatcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || replier == nil {
		return nil, fmt.Errorf("store and replier are required")
	}
	if log == nil {
		log = logger.Nop{}
	}
	d := &Dispatcher{
		cfg:     cfg,
		store:   store,
		replier: replier,
		gate:    command.Gate{Source: privileges},
		log:     log,
		metrics: metrics.NopSink{},
	}
	d.requireVoice.Store(!cfg.AllowEveryone)
	return d, nil
}

// SetGridSource configures where ~reload reads the grid from.
func (d *Dispatcher) SetGridSource(src GridSource) { d.grid = src }

// SetLogStore configures the audit log of handled commands.
func (d *Dispatcher) SetLogStore(store logging.LogStore) { d.audit = store }

// SetMetrics configures the metrics sink.
func (d *Dispatcher) SetMetrics(sink metrics.MetricsSink) {
	if sink != nil {
		d.metrics = sink
	}
}

// RequireVoice reports whether track commands currently need voice.
func (d *Dispatcher) RequireVoice() bool { return d.requireVoice.Load() }

type result struct {
	kind    string
	outcome string
	err     error
	replies []string
}

// Handle processes one channel message to completion, including sending
// its replies. Messages without a sigil are ignored.
func (d *Dispatcher) Handle(ctx context.Context, ev chat.Event) {
	if d.cfg.Channel != "" && !strings.EqualFold(ev.Channel, d.cfg.Channel) {
		return
	}
	text := strings.TrimSpace(ev.Text)
	var mode command.Mode
	switch {
	case strings.HasPrefix(text, d.cfg.PublicSigil):
		mode = command.ModePublic
		text = text[len(d.cfg.PublicSigil):]
	case strings.HasPrefix(text, d.cfg.AdminSigil):
		mode = command.ModeAdmin
		text = text[len(d.cfg.AdminSigil):]
	default:
		return
	}

	start := time.Now()
	res := d.process(ctx, ev, mode, text)
	for _, line := range res.replies {
		if err := d.replier.Send(ctx, ev.Channel, line); err != nil {
			d.log.Errorf("send to %s: %v", ev.Channel, err)
			break
		}
	}
	d.record(ctx, ev, res, start)
}

func (d *Dispatcher) process(ctx context.Context, ev chat.Event, mode command.Mode, body string) result {
	cmd, err := command.Parse(body, mode)
	if err != nil {
		var perr *command.ParseError
		if !errors.As(err, &perr) {
			return result{outcome: OutcomeError, err: err}
		}
		return d.parseFailure(ev.Sender, perr)
	}
	kind := cmd.Kind.String()

	if err := d.gate.Check(ctx, ev.Channel, ev.Sender, cmd.Kind, d.requireVoice.Load()); err != nil {
		var unauth *command.Unauthorized
		if errors.As(err, &unauth) {
			return result{kind: kind, outcome: OutcomeUnauthorized, err: err,
				replies: []string{unauthorizedLine(ev.Sender, unauth.Required)}}
		}
		d.log.Errorf("authorization check for %s: %v", ev.Sender, err)
		return result{kind: kind, outcome: OutcomeError, err: err,
			replies: []string{fmt.Sprintf("%s: could not verify your channel status", ev.Sender)}}
	}

	replies, err := d.execute(ev.Sender, cmd)
	res := result{kind: kind, outcome: OutcomeOK, err: err, replies: replies}
	var (
		verr *schedule.ValidationError
		serr *schedule.StorageError
		cerr *schedule.ConfigError
	)
	switch {
	case err == nil:
	case errors.As(err, &verr):
		res.outcome = OutcomeInvalid
		res.replies = []string{fmt.Sprintf("%s: %s", ev.Sender, verr.Error())}
	case errors.As(err, &serr):
		res.outcome = OutcomeStorageError
		d.log.Errorf("%s from %s not applied: %v", kind, ev.Sender, err)
		monitoring.CaptureException(err, map[string]string{"module": "schedule", "op": serr.Op, "command": kind})
		res.replies = []string{fmt.Sprintf("%s: could not save the schedule, change not applied", ev.Sender)}
	case errors.As(err, &cerr):
		res.outcome = OutcomeInvalid
		res.replies = []string{fmt.Sprintf("%s: reload failed: %s", ev.Sender, cerr.Error())}
	default:
		res.outcome = OutcomeError
		d.log.Errorf("%s from %s failed: %v", kind, ev.Sender, err)
		res.replies = []string{fmt.Sprintf("%s: %s failed", ev.Sender, kind)}
	}
	return res
}

//gocyclo:ignore
func (d *Dispatcher) execute(nick string, cmd command.Command) ([]string, error) {
	switch cmd.Kind {
	case command.KindNow, command.KindNext, command.KindColor, command.KindLocation, command.KindClean:
		if !d.store.IsTrackValid(cmd.Track) {
			return nil, &schedule.ValidationError{What: "track", Value: cmd.Track}
		}
		return nil, d.trackUpdate(cmd)

	case command.KindBook:
		ok, err := d.store.Book(cmd.Room, cmd.Slot, cmd.Track)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &schedule.ValidationError{What: "room-slot", Value: ref(cmd)}
		}
		return []string{fmt.Sprintf("%s: Room %s booked for %s", nick, ref(cmd), cmd.Track)}, nil

	case command.KindUnbook:
		if !d.store.ValidPair(cmd.Room, cmd.Slot) {
			return nil, &schedule.ValidationError{What: "room-slot", Value: ref(cmd)}
		}
		if err := d.store.Unbook(cmd.Room, cmd.Slot); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Room %s is now free", nick, ref(cmd))}, nil

	case command.KindList:
		tracks := d.store.ListTracks()
		if len(tracks) == 0 {
			return []string{"No active tracks"}, nil
		}
		return []string{"Active tracks: " + strings.Join(tracks, ", ")}, nil

	case command.KindAddTracks:
		if err := d.store.AddTracks(cmd.Args...); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Added tracks: %s", nick, strings.Join(cmd.Args, ", "))}, nil

	case command.KindDelTracks:
		if err := d.store.DelTracks(cmd.Args...); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Removed tracks: %s", nick, strings.Join(cmd.Args, ", "))}, nil

	case command.KindCleanTracks:
		if err := d.store.CleanTracks(cmd.Args...); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Cleaned now/next of: %s", nick, strings.Join(cmd.Args, ", "))}, nil

	case command.KindNewDay:
		if err := d.store.NewDay(); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Now/next cleared for all tracks", nick)}, nil

	case command.KindRequireVoice:
		d.requireVoice.Store(true)
		d.log.Infof("voice requirement enabled by %s", nick)
		return []string{fmt.Sprintf("%s: Voice is now required to issue track commands", nick)}, nil

	case command.KindAllowEveryone:
		d.requireVoice.Store(false)
		d.log.Infof("voice requirement lifted by %s", nick)
		return []string{fmt.Sprintf("%s: Everyone can now issue track commands", nick)}, nil

	case command.KindReload:
		if d.grid == nil {
			return nil, fmt.Errorf("no configuration source")
		}
		g, err := d.grid()
		if err != nil {
			return nil, err
		}
		if err := d.store.Initialize(g); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s: Schedule reloaded", nick)}, nil
	}
	return nil, fmt.Errorf("unhandled command %s", cmd.Kind)
}

func (d *Dispatcher) trackUpdate(cmd command.Command) error {
	switch cmd.Kind {
	case command.KindNow:
		return d.store.AddNow(cmd.Track, cmd.Text)
	case command.KindNext:
		return d.store.AddNext(cmd.Track, cmd.Text)
	case command.KindColor:
		return d.store.AddColor(cmd.Track, cmd.Text)
	case command.KindLocation:
		return d.store.AddLocation(cmd.Track, cmd.Text)
	default:
		return d.store.CleanTracks(cmd.Track)
	}
}

func (d *Dispatcher) record(ctx context.Context, ev chat.Event, res result, start time.Time) {
	if err := d.metrics.RecordCommand(metrics.CommandEvent{
		Kind:     res.kind,
		Outcome:  res.outcome,
		Channel:  ev.Channel,
		Sender:   ev.Sender,
		Duration: time.Since(start),
		Time:     start,
	}); err != nil {
		d.log.Warnf("record command metric: %v", err)
	}
	if d.audit == nil {
		return
	}
	rec := logging.LogRecord{
		ID:        uuid.NewString(),
		Timestamp: start,
		Sender:    ev.Sender,
		Channel:   ev.Channel,
		Text:      ev.Text,
		Kind:      res.kind,
		Outcome:   res.outcome,
		Replies:   res.replies,
	}
	if res.err != nil {
		rec.Error = res.err.Error()
	}
	if err := d.audit.Append(ctx, rec); err != nil {
		d.log.Warnf("audit append: %v", err)
	}
}

func ref(cmd command.Command) string { return cmd.Room + schedule.RefSeparator + cmd.Slot }
