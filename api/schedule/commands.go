package schedule

import (
	"net/http"
	"time"

	"github.com/kilianp07/ptgbot/core/dispatch/logging"
)

// NewCommandLogHandler returns an HTTP handler exposing the command audit
// log via GET /api/commands. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewCommandLogHandler(store logging.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		params := r.URL.Query()
		q := logging.LogQuery{
			Sender:  params.Get("sender"),
			Kind:    params.Get("kind"),
			Outcome: params.Get("outcome"),
		}
		for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
			s := params.Get(name)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid "+name+": "+err.Error(), http.StatusBadRequest)
				return
			}
			*dst = t
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.LogRecord{}
		}
		writeJSON(w, records)
	})
}
