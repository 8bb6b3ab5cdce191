// Package coordinator owns the client-visible state fetched from the
// journal server and mediates every call into the API client. Presentation
// code subscribes for snapshots; it never talks to the network itself.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vpetrenko/bp-journal/model"
)

// API is the surface of the journal client the coordinator depends on.
//
//go:generate mockgen -source=coordinator.go -destination=mocks/api.go -package=mocks
type API interface {
	FetchReadings(ctx context.Context) ([]model.Reading, error)
	FetchStats(ctx context.Context) (*model.Stats, error)
	SubmitReading(ctx context.Context, in model.ReadingInput) error
	DeleteReading(ctx context.Context, id int64) error
}

// Snapshot is a copy of the coordinator state handed to subscribers.
// Mutating it has no effect on the coordinator.
type Snapshot struct {
	Readings        []model.Reading
	Stats           *model.Stats
	LoadingReadings bool
	LoadingStats    bool
	Submitting      bool
	LastError       string
}

// Loading reports whether either of the LoadAll fetches is still in flight.
func (s Snapshot) Loading() bool { return s.LoadingReadings || s.LoadingStats }

// Coordinator is safe for concurrent use. Overlapping LoadAll calls are not
// cancelled; the last writer wins under the mutex.
type Coordinator struct {
	api    API
	logger *zap.SugaredLogger

	mu              sync.Mutex
	readings        []model.Reading
	stats           *model.Stats
	loadingReadings bool
	loadingStats    bool
	submitting      bool
	lastError       string
	subscribers     []func(Snapshot)
}

// New creates a coordinator around the given API client. A nil logger is
// replaced with a no-op one.
func New(api API, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Coordinator{api: api, logger: logger}
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run outside the coordinator lock, on the mutating goroutine.
func (c *Coordinator) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	readings := make([]model.Reading, len(c.readings))
	copy(readings, c.readings)
	var stats *model.Stats
	if c.stats != nil {
		s := *c.stats
		stats = &s
	}
	return Snapshot{
		Readings:        readings,
		Stats:           stats,
		LoadingReadings: c.loadingReadings,
		LoadingStats:    c.loadingStats,
		Submitting:      c.submitting,
		LastError:       c.lastError,
	}
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// LoadAll refreshes readings and stats with two concurrently-initiated
// fetches. The first failure does not cancel the sibling; state is applied
// only after both settle. On any failure the previously held data stays
// visible and one combined error is surfaced — readings and stats only move
// together, since stats are derived from readings server-side.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	c.loadingReadings = true
	c.loadingStats = true
	c.mu.Unlock()
	c.notify()

	var (
		wg          sync.WaitGroup
		readings    []model.Reading
		stats       *model.Stats
		readingsErr error
		statsErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		readings, readingsErr = c.api.FetchReadings(ctx)
		c.mu.Lock()
		c.loadingReadings = false
		c.mu.Unlock()
		c.notify()
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = c.api.FetchStats(ctx)
		c.mu.Lock()
		c.loadingStats = false
		c.mu.Unlock()
		c.notify()
	}()
	wg.Wait()

	err := combineFetchErrors(readingsErr, statsErr)

	c.mu.Lock()
	if err != nil {
		c.lastError = err.Error()
	} else {
		c.readings = readings
		c.stats = stats
		c.lastError = ""
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Errorf("load: %v", err)
	}
	return err
}

func combineFetchErrors(readingsErr, statsErr error) error {
	switch {
	case readingsErr != nil && statsErr != nil:
		return fmt.Errorf("readings: %v; stats: %v", readingsErr, statsErr)
	case readingsErr != nil:
		return fmt.Errorf("readings: %w", readingsErr)
	case statsErr != nil:
		return fmt.Errorf("stats: %w", statsErr)
	}
	return nil
}

// Submit validates and posts a new reading. On success both readings and
// stats are refetched: the server is the source of truth for classification
// and averages, so the fresh state is only obtainable by reloading. On
// failure the error propagates so the entry form can stay open; held state
// is untouched.
func (c *Coordinator) Submit(ctx context.Context, in model.ReadingInput) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid reading input: %w", err)
	}

	c.mu.Lock()
	c.submitting = true
	c.mu.Unlock()
	c.notify()

	err := c.api.SubmitReading(ctx, in)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.lastError = err.Error()
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Errorf("submit: %v", err)
		return err
	}
	return c.LoadAll(ctx)
}

// Delete removes the reading from the visible list immediately, before the
// network call completes. If the server rejects the delete, the reading is
// restored at its original position so local state converges back to the
// server's view.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	idx := -1
	var removed model.Reading
	for i, r := range c.readings {
		if r.ID == id {
			idx = i
			removed = r
			break
		}
	}
	if idx >= 0 {
		c.readings = append(c.readings[:idx:idx], c.readings[idx+1:]...)
	}
	c.mu.Unlock()
	c.notify()

	err := c.api.DeleteReading(ctx, id)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	if idx >= 0 {
		at := idx
		if at > len(c.readings) {
			at = len(c.readings)
		}
		rest := append([]model.Reading{removed}, c.readings[at:]...)
		c.readings = append(c.readings[:at:at], rest...)
	}
	c.lastError = err.Error()
	c.mu.Unlock()
	c.notify()

	c.logger.Errorf("delete %d: %v", id, err)
	return err
}
