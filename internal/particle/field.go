package particle

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/gentle/internal/imagery"
)

// Field owns every particle of the sketch and the canvas bounds they bounce in.
// A Field is not safe for concurrent use; the frame loop is its only owner.
type Field struct {
	particles []Particle
	width     float64
	height    float64
	rng       *rand.Rand
}

// NewField creates an empty field for a width x height canvas.
// A nil rng uses a randomly seeded source.
func NewField(width, height int, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Field{
		width:  float64(width),
		height: float64(height),
		rng:    rng,
	}
}

// Seed discards every particle and creates one per sample point.
// Each particle starts at its sample with a random velocity in [-1,1] per axis.
func (f *Field) Seed(points []imagery.Point) {
	particles := make([]Particle, len(points))
	for i, pt := range points {
		particles[i] = Particle{
			Position: r2.Vec{X: float64(pt.X), Y: float64(pt.Y)},
			Velocity: r2.Vec{X: f.uniform(), Y: f.uniform()},
			Radius:   pt.Radius,
			Color:    pt.Color,
		}
	}
	f.particles = particles
}

func (f *Field) uniform() float64 {
	return f.rng.Float64()*2 - 1
}

// Update advances every particle by one frame.
func (f *Field) Update(grip bool) {
	for i := range f.particles {
		f.particles[i].Update(f.width, f.height, grip)
	}
}

// Resize changes the canvas bounds without touching the particles.
func (f *Field) Resize(width, height int) {
	f.width = float64(width)
	f.height = float64(height)
}

// Size returns the canvas bounds.
func (f *Field) Size() (width, height int) {
	return int(f.width), int(f.height)
}

// Particles returns the current particles. The slice is owned by the field
// and is only valid until the next Seed.
func (f *Field) Particles() []Particle {
	return f.particles
}

// Len returns the number of particles.
func (f *Field) Len() int {
	return len(f.particles)
}
