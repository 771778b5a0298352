// Package gesture classifies hand landmarks into the grip signal that drives the particle field.
package gesture

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/gentle/internal/detector"
)

// DefaultThreshold is the mean squared error below which a hand counts as a fist.
// It is tied to pixel-space keypoints on a typical webcam-sized canvas.
const DefaultThreshold = 5000.0

// Mode selects how dispersion is accumulated across the hands of one batch.
type Mode string

const (
	// ModeCumulative keeps the centroid sums and squared error running across
	// every hand in the batch. Later hands see a centroid and error polluted by
	// earlier ones; with a single hand it is the plain dispersion statistic.
	ModeCumulative Mode = "cumulative"
	// ModePerHand computes centroid and error independently for each hand.
	ModePerHand Mode = "per-hand"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCumulative, ModePerHand:
		return Mode(s), nil
	case "":
		return ModeCumulative, nil
	}
	return "", fmt.Errorf("unknown gesture mode %q", s)
}

// Classifier reduces a batch of hand predictions to a single grip signal.
// The last classified hand in a batch decides the signal; an empty batch
// leaves it unchanged.
type Classifier struct {
	threshold float64
	mode      Mode
	grip      bool
	lastMSE   float64

	// Debug logs the mean squared error of every classified hand.
	Debug bool
}

// NewClassifier creates a Classifier with the given threshold and mode.
// A non-positive threshold falls back to DefaultThreshold.
func NewClassifier(threshold float64, mode Mode) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if mode == "" {
		mode = ModeCumulative
	}
	return &Classifier{
		threshold: threshold,
		mode:      mode,
	}
}

// Classify updates and returns the grip signal for one frame's batch.
// Keypoints are expected in canvas pixel space.
func (c *Classifier) Classify(batch []detector.HandLandmarks) bool {
	var total r2.Vec
	var totalError float64

	for i := range batch {
		points := batch[i].Points
		if len(points) == 0 {
			continue
		}

		if c.mode == ModePerHand {
			total = r2.Vec{}
			totalError = 0
		}

		for _, p := range points {
			total = r2.Add(total, r2.Vec{X: p.X, Y: p.Y})
		}

		// The batch size in the denominator only matches the running sums
		// when every hand reports the same number of keypoints.
		hands := len(batch)
		if c.mode == ModePerHand {
			hands = 1
		}
		center := r2.Scale(1/float64(hands*len(points)), total)

		for _, p := range points {
			d := r2.Sub(r2.Vec{X: p.X, Y: p.Y}, center)
			totalError += r2.Dot(d, d)
		}

		mse := totalError / float64(len(points))
		c.lastMSE = mse
		c.grip = mse < c.threshold

		if c.Debug {
			log.Printf("Mean squared error: %.1f (grip: %v)", mse, c.grip)
		}
	}

	return c.grip
}

// Grip returns the current grip signal without reclassifying.
func (c *Classifier) Grip() bool {
	return c.grip
}

// LastMSE returns the mean squared error of the most recently classified hand.
func (c *Classifier) LastMSE() float64 {
	return c.lastMSE
}

// Mode returns the accumulation mode of the classifier.
func (c *Classifier) Mode() Mode {
	return c.mode
}

// Threshold returns the grip threshold of the classifier.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}
