// Package schedule exposes the schedule and the command audit log over
// HTTP for the schedule web page and for operators.
package schedule

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/ptgbot/core/dispatch/logging"
	coreschedule "github.com/kilianp07/ptgbot/core/schedule"
)

// SnapshotSource returns the current schedule. *schedule.Store satisfies it.
type SnapshotSource interface {
	Snapshot() coreschedule.Snapshot
}

// NewScheduleHandler returns an HTTP handler exposing the full schedule via
// GET /api/schedule.
func NewScheduleHandler(src SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, src.Snapshot())
	})
}

// NewTrackHandler returns an HTTP handler exposing one track via
// GET /api/tracks/{name}.
func NewTrackHandler(src SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		track, ok := src.Snapshot().Track(r.PathValue("name"))
		if !ok {
			http.Error(w, "unknown track", http.StatusNotFound)
			return
		}
		writeJSON(w, track)
	})
}

// NewMux routes the schedule, track and audit endpoints. A nil audit store
// leaves /api/commands unregistered.
func NewMux(src SnapshotSource, audit logging.LogStore, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", NewScheduleHandler(src))
	mux.Handle("/api/tracks/{name}", NewTrackHandler(src))
	if audit != nil {
		mux.Handle("/api/commands", NewCommandLogHandler(audit, token))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
