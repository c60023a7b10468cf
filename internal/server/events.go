package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nholik/delegate-sentinel/internal/eventbus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxEventBodyBytes = 1 << 20

// Default ingestion limits.
const (
	DefaultEventRate  = rate.Limit(50)
	DefaultEventBurst = 100
)

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventsOption customizes the ingestion handler.
type EventsOption func(*eventsHandler)

// WithToken requires the Authorization header to carry token.
func WithToken(token string) EventsOption {
	return func(h *eventsHandler) {
		h.token = token
	}
}

// WithLimiter overrides the inbound request limiter.
func WithLimiter(limiter *rate.Limiter) EventsOption {
	return func(h *eventsHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

type eventsHandler struct {
	logger  zerolog.Logger
	bus     eventbus.Bus
	token   string
	limiter *rate.Limiter
}

// NewEventsHandler returns a router accepting node webhook events on
// POST /api/events and publishing them on bus.
func NewEventsHandler(logger zerolog.Logger, bus eventbus.Bus, opts ...EventsOption) http.Handler {
	h := &eventsHandler{
		logger:  logger,
		bus:     bus,
		limiter: rate.NewLimiter(DefaultEventRate, DefaultEventBurst),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Use(h.authorize)
		r.Post("/api/events", h.handleEvent)
	})
	return r
}

func (h *eventsHandler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *eventsHandler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			header = strings.TrimSpace(header[7:])
		}
		if subtle.ConstantTimeCompare([]byte(header), []byte(h.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *eventsHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var in inboundEvent
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err := decoder.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(in.Event)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing event name")
		return
	}

	delivered := h.bus.Publish(eventbus.Event{Name: name, Data: in.Data})
	if delivered == 0 {
		h.logger.Debug().Str("event", name).Msg("event not delivered; no subscribed listener with buffer room")
	} else {
		h.logger.Debug().Str("event", name).Msg("event accepted")
	}

	w.WriteHeader(http.StatusAccepted)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
