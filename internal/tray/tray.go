// Package tray provides the system tray menu for the sketch.
package tray

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// gripPollInterval is how often Follow refreshes the grip status item.
const gripPollInterval = 250 * time.Millisecond

// Tray represents the system tray menu.
type Tray struct {
	onPause    func(paused bool)
	onSnapshot func()
	onQuit     func()
	paused     bool
	grip       bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuPause *systray.MenuItem
	menuGrip  *systray.MenuItem
}

// New creates a new Tray instance with the sketch running.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback function to be called when the pause state is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnSnapshot sets the callback function to be called when Save Snapshot is clicked.
func (t *Tray) OnSnapshot(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSnapshot = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Register sets the tray up without taking over the event loop, for use
// next to the drawing window.
func (t *Tray) Register() {
	systray.Register(t.onReady, t.onExit)
}

// Quit removes the tray icon.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("gentle")
	systray.SetTooltip("gentle - gesture particle sketch")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem("❚❚ Pause", "Freeze the particles")
	systray.AddSeparator()

	t.menuGrip = systray.AddMenuItem(gripTitle(t.grip), "Current hand gesture")
	t.menuGrip.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSnapshot := systray.AddMenuItem("Save Snapshot", "Save the canvas as PNG")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit gentle")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuSnapshot.ClickedCh:
				t.handleSnapshot()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handlePause handles the pause menu item click.
func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused

	if t.menuPause != nil {
		if paused {
			t.menuPause.SetTitle("▶ Resume")
		} else {
			t.menuPause.SetTitle("❚❚ Pause")
		}
	}

	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// handleSnapshot handles the snapshot menu item click.
func (t *Tray) handleSnapshot() {
	t.mu.RLock()
	callback := t.onSnapshot
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetGrip updates the gesture display in the menu.
func (t *Tray) SetGrip(grip bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grip == grip {
		return
	}
	t.grip = grip

	if t.menuGrip != nil {
		t.menuGrip.SetTitle(gripTitle(grip))
	}
}

// Follow polls grip and mirrors it in the menu until ctx is done.
func (t *Tray) Follow(ctx context.Context, grip func() bool) {
	ticker := time.NewTicker(gripPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetGrip(grip())
		}
	}
}

// IsPaused returns the current pause state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Grip returns the gesture currently shown in the menu.
func (t *Tray) Grip() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.grip
}

func gripTitle(grip bool) string {
	if grip {
		return "Hand: fist"
	}
	return "Hand: open"
}
