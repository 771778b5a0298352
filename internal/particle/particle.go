// Package particle implements the particle field that is seeded from image
// samples and steered by the grip signal.
package particle

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Physics constants. They are fixed for the sketch and not user configurable.
const (
	// MaxSpeed caps the velocity magnitude after every update.
	MaxSpeed = 10.0
	// MaxAccel caps the attraction toward the canvas center while gripping.
	MaxAccel = 5.0
	// AttractionDivisor scales the offset to the canvas center into an acceleration.
	AttractionDivisor = 300.0
)

// Particle is a single colored disc moving over the canvas.
type Particle struct {
	Position     r2.Vec
	Velocity     r2.Vec
	Acceleration r2.Vec
	Radius       float64
	Color        color.RGBA
}

// Update advances the particle by one frame inside a width x height canvas.
//
// Order matters: position integrates the old velocity, velocity integrates the
// old acceleration and is capped, edges reflect the velocity, and only then is
// the acceleration for the next frame computed.
func (p *Particle) Update(width, height float64, grip bool) {
	p.Position = r2.Add(p.Position, p.Velocity)
	p.Velocity = limit(r2.Add(p.Velocity, p.Acceleration), MaxSpeed)

	// Position is not clamped; the flipped velocity brings it back.
	if p.Position.X < 0 || p.Position.X > width {
		p.Velocity.X = -p.Velocity.X
	}
	if p.Position.Y < 0 || p.Position.Y > height {
		p.Velocity.Y = -p.Velocity.Y
	}

	if grip {
		center := r2.Vec{X: width / 2, Y: height / 2}
		diff := r2.Sub(center, p.Position)
		p.Acceleration = limit(r2.Scale(1/AttractionDivisor, diff), MaxAccel)
	} else {
		p.Acceleration = r2.Vec{}
	}
}

// limit rescales v to magnitude maxLen when it is longer, preserving direction.
func limit(v r2.Vec, maxLen float64) r2.Vec {
	n := r2.Norm(v)
	if n <= maxLen || n == 0 {
		return v
	}
	return r2.Scale(maxLen/n, v)
}
