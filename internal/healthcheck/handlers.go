package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler serves /healthz responses. pollInterval is the delegate poll
// interval; zero disables the staleness check.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		if tracker.Healthy(time.Now().UTC(), pollInterval) {
			status = http.StatusOK
		}
		writeJSON(w, status, tracker.Snapshot())
	}
}

// ReadyHandler serves /readyz responses.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		if tracker.Ready() {
			status = http.StatusOK
		}
		writeJSON(w, status, tracker.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
