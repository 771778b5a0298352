package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// Pipeline rates used while the scene is idle or moving.
const (
	IdleFPS     = 5
	ActiveFPS   = 15
	IdleTimeout = 2 * time.Second
)

// Gate switches between idle and active mode from motion in the camera feed.
// It goes active on the first frame with motion and back to idle once no
// motion has been seen for the timeout.
type Gate struct {
	motion     *MotionDetector
	timeout    time.Duration
	active     bool
	lastMotion time.Time
}

// NewGate creates a Gate around a motion detector.
// A non-positive timeout uses IdleTimeout.
func NewGate(motion *MotionDetector, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = IdleTimeout
	}
	return &Gate{
		motion:  motion,
		timeout: timeout,
	}
}

// Observe feeds a frame to the motion detector and reports whether the gate
// is active afterwards and whether that changed with this frame.
func (g *Gate) Observe(frame *gocv.Mat, now time.Time) (active, changed bool) {
	moved, _ := g.motion.Detect(frame)
	return g.Update(moved, now)
}

// Update advances the gate with an externally computed motion result.
func (g *Gate) Update(moved bool, now time.Time) (active, changed bool) {
	if moved {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true, true
		}
		return true, false
	}

	if g.active && now.Sub(g.lastMotion) > g.timeout {
		g.active = false
		return false, true
	}

	return g.active, false
}

// Active reports whether the gate is in active mode.
func (g *Gate) Active() bool {
	return g.active
}

// FPS returns the capture rate matching the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return ActiveFPS
	}
	return IdleFPS
}

// Reset returns the gate to idle and clears the motion baseline.
func (g *Gate) Reset() {
	g.active = false
	g.lastMotion = time.Time{}
	g.motion.Reset()
}

// Close releases the motion detector.
func (g *Gate) Close() {
	g.motion.Close()
}
