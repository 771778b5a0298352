// Package render draws the particle field onto a GoCV canvas.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/gentle/internal/detector"
	"github.com/ayusman/gentle/internal/particle"
)

// Drawing constants.
const (
	// FadeAlpha is how strongly the canvas is pulled back to white every
	// frame (out of 255), which leaves short trails behind the particles.
	FadeAlpha = 30
	// BackgroundAlpha is the opacity of the source image under the particles (out of 255).
	BackgroundAlpha = 50
	// KeypointRadius is the radius of the marker drawn on every hand landmark.
	KeypointRadius = 5
)

// KeypointColor is the fill of the hand landmark markers.
var KeypointColor = color.RGBA{G: 255, A: 255}

// ErrEncode is returned when the canvas cannot be encoded.
var ErrEncode = errors.New("encode canvas")

// Renderer owns the canvas and the background image drawn on it.
// It is not safe for concurrent use.
type Renderer struct {
	width      int
	height     int
	canvas     gocv.Mat
	white      gocv.Mat
	source     gocv.Mat
	background gocv.Mat
}

// NewRenderer creates a white width x height canvas.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{
		source:     gocv.NewMat(),
		background: gocv.NewMat(),
	}
	r.allocate(width, height)
	return r
}

func (r *Renderer) allocate(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	white := gocv.NewScalar(255, 255, 255, 0)
	r.width, r.height = width, height
	r.canvas = gocv.NewMatWithSizeFromScalar(white, height, width, gocv.MatTypeCV8UC3)
	r.white = gocv.NewMatWithSizeFromScalar(white, height, width, gocv.MatTypeCV8UC3)
}

// SetBackground replaces the image drawn beneath the particles.
// It is stretched to the canvas size.
func (r *Renderer) SetBackground(img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert background: %w", err)
	}

	r.source.Close()
	r.source = mat
	r.fitBackground()
	return nil
}

func (r *Renderer) fitBackground() {
	if r.source.Empty() {
		return
	}
	gocv.Resize(r.source, &r.background, image.Pt(r.width, r.height), 0, 0, gocv.InterpolationLinear)
}

// Resize reallocates the canvas. The trails are lost; particles are not touched.
func (r *Renderer) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.canvas.Close()
	r.white.Close()
	r.allocate(width, height)
	r.fitBackground()
}

// Size returns the canvas dimensions.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Draw renders one frame: fade, background, particles, then landmark markers.
// Hands must already be in canvas pixel space.
func (r *Renderer) Draw(particles []particle.Particle, hands []detector.HandLandmarks) {
	fade := FadeAlpha / 255.0
	gocv.AddWeighted(r.canvas, 1-fade, r.white, fade, 0, &r.canvas)

	if !r.background.Empty() {
		alpha := BackgroundAlpha / 255.0
		gocv.AddWeighted(r.canvas, 1-alpha, r.background, alpha, 0, &r.canvas)
	}

	for i := range particles {
		p := &particles[i]
		center := image.Pt(int(math.Round(p.Position.X)), int(math.Round(p.Position.Y)))
		gocv.Circle(&r.canvas, center, int(math.Round(p.Radius)), p.Color, -1)
	}

	for _, hand := range hands {
		for _, kp := range hand.Points {
			center := image.Pt(int(math.Round(kp.X)), int(math.Round(kp.Y)))
			gocv.Circle(&r.canvas, center, KeypointRadius, KeypointColor, -1)
		}
	}
}

// Canvas returns the canvas. It stays owned by the renderer.
func (r *Renderer) Canvas() *gocv.Mat {
	return &r.canvas
}

// Save writes the canvas to path; the format follows the file extension.
func (r *Renderer) Save(path string) error {
	if ok := gocv.IMWrite(path, r.canvas); !ok {
		return fmt.Errorf("write canvas to %s", path)
	}
	return nil
}

// EncodeJPEG returns the canvas as JPEG bytes owned by the caller.
func (r *Renderer) EncodeJPEG() ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", r.canvas)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases every Mat held by the renderer.
func (r *Renderer) Close() {
	r.canvas.Close()
	r.white.Close()
	r.source.Close()
	r.background.Close()
}
