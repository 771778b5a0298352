package imagery

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is how long each image stays on screen.
const DefaultInterval = 45 * time.Second

// ErrNoImages is returned when a Rotator is created without image paths.
var ErrNoImages = errors.New("no images configured")

// Rotator cycles through a fixed, ordered list of image paths.
type Rotator struct {
	paths    []string
	interval time.Duration

	mu         sync.Mutex
	index      int
	lastSwitch time.Time
}

// NewRotator creates a Rotator positioned on the first path.
// A non-positive interval uses DefaultInterval.
func NewRotator(paths []string, interval time.Duration) (*Rotator, error) {
	if len(paths) == 0 {
		return nil, ErrNoImages
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Rotator{
		paths:      append([]string(nil), paths...),
		interval:   interval,
		lastSwitch: time.Now(),
	}, nil
}

// Current returns the active image path.
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[r.index]
}

// Index returns the position of the active image in the list.
func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// LastSwitch returns when the active image was selected.
func (r *Rotator) LastSwitch() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSwitch
}

// Interval returns the time between two switches.
func (r *Rotator) Interval() time.Duration {
	return r.interval
}

// Advance moves to the next path, wrapping around, and returns it.
func (r *Rotator) Advance(now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = (r.index + 1) % len(r.paths)
	r.lastSwitch = now
	return r.paths[r.index]
}

// Run advances every interval and hands each new path to load until ctx is
// done. load runs on the Run goroutine; a slow load delays the next tick.
func (r *Rotator) Run(ctx context.Context, load func(path string)) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			load(r.Advance(now))
		}
	}
}
