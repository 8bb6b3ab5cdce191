// Package testutils provides a canned in-memory journal backend for tests.
// It speaks the same wire conventions as the real server but is never
// shipped; pair it with httptest.NewServer.
package testutils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vpetrenko/bp-journal/model"
)

// Backend holds canned readings/stats and records what the client sent.
type Backend struct {
	mu       sync.Mutex
	readings []model.Reading
	stats    *model.Stats
	nextID   int64

	Submitted []model.ReadingInput
	Deleted   []int64

	// FailReadings / FailStats make the matching endpoint answer 500 with a
	// JSON error body.
	FailReadings bool
	FailStats    bool
}

// NewBackend seeds a backend with the given readings and stats.
func NewBackend(readings []model.Reading, stats *model.Stats) *Backend {
	var maxID int64
	for _, r := range readings {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return &Backend{readings: readings, stats: stats, nextID: maxID + 1}
}

// Readings returns a copy of the current reading list.
func (b *Backend) Readings() []model.Reading {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Reading, len(b.readings))
	copy(out, b.readings)
	return out
}

// Router builds the HTTP surface matching the real server's paths.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.StripSlashes)
	r.Get("/api/readings", b.listReadings)
	r.Get("/api/stats", b.getStats)
	r.Post("/submit", b.submit)
	r.Delete("/api/readings/{id}", b.deleteReading)
	return r
}

func (b *Backend) listReadings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailReadings {
		writeError(w, http.StatusInternalServerError, "readings unavailable")
		return
	}
	writeJSON(w, b.readings)
}

func (b *Backend) getStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailStats {
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, b.stats)
}

func (b *Backend) submit(w http.ResponseWriter, r *http.Request) {
	var in model.ReadingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reading payload")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.Submitted = append(b.Submitted, in)
	b.readings = append(b.readings, model.Reading{
		ID:             b.nextID,
		Timestamp:      model.NewTimestamp(time.Now().UTC()),
		Systolic:       (in.Systolic1 + in.Systolic2 + in.Systolic3) / 3,
		Diastolic:      (in.Diastolic1 + in.Diastolic2 + in.Diastolic3) / 3,
		Pulse:          (in.Pulse1 + in.Pulse2 + in.Pulse3) / 3,
		Classification: "Normal",
	})
	b.nextID++
	w.WriteHeader(http.StatusCreated)
}

func (b *Backend) deleteReading(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reading id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.Deleted = append(b.Deleted, id)
	for i, rd := range b.readings {
		if rd.ID == id {
			b.readings = append(b.readings[:i], b.readings[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "reading not found")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
