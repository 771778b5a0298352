package server

import (
	"sync"

	"github.com/ayusman/gentle/internal/sketch"
)

// fakeSource is a Source with a fixed state and frame.
type fakeSource struct {
	mu        sync.Mutex
	state     sketch.State
	frame     []byte
	snapshots int
}

func (f *fakeSource) State() sketch.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Frame() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.frame != nil
}

func (f *fakeSource) RequestSnapshot() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
}

func (f *fakeSource) requested() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots
}
