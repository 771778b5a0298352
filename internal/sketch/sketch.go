// Package sketch runs the gesture-driven particle drawing: it owns the
// simulation state and connects the camera, detector, classifier, particle
// field and renderer.
package sketch

import (
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/gentle/internal/capture"
	"github.com/ayusman/gentle/internal/config"
	"github.com/ayusman/gentle/internal/detector"
	"github.com/ayusman/gentle/internal/gesture"
	"github.com/ayusman/gentle/internal/imagery"
	"github.com/ayusman/gentle/internal/particle"
	"github.com/ayusman/gentle/internal/render"
	"github.com/ayusman/gentle/internal/store"
)

// WindowName is the title of the drawing window.
const WindowName = "gentle"

// State is a read-only view of the sketch published once per frame.
type State struct {
	Grip      bool                     `json:"grip"`
	MSE       float64                  `json:"mse"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Particles int                      `json:"particles"`
	Image     string                   `json:"image"`
	Paused    bool                     `json:"paused"`
	Width     int                      `json:"width"`
	Height    int                      `json:"height"`
	Frame     uint64                   `json:"frame"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Sketch holds the simulation state and the collaborators feeding it.
// The field, classifier and renderer are only touched by the frame loop.
type Sketch struct {
	config config.Config
	store  *store.Store

	mu       sync.RWMutex
	camera   capture.Camera
	detector detector.Detector

	gate       *capture.Gate
	classifier *gesture.Classifier
	field      *particle.Field
	renderer   *render.Renderer
	rotator    *imagery.Rotator

	hands  Mailbox[[]detector.HandLandmarks]
	images Mailbox[*imagery.Image]
	state  Mailbox[State]
	frame  Mailbox[[]byte]
	size   atomic.Pointer[image.Point]

	image      string
	frames     uint64
	windowed   image.Point
	fullscreen bool
	stream     bool

	paused   atomic.Bool
	snapshot atomic.Bool
	click    atomic.Bool
}

// New creates a Sketch from cfg and loads the first image synchronously.
// The store is optional; without it snapshots are written but not recorded.
func New(cfg config.Config, st *store.Store) (*Sketch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rotator, err := imagery.NewRotator(cfg.Images, cfg.RotateInterval)
	if err != nil {
		return nil, err
	}

	width, height := cfg.Width, cfg.Height
	if width == 0 || height == 0 {
		width, height = render.ScreenSize()
	}

	classifier := gesture.NewClassifier(cfg.GripThreshold, cfg.Mode())
	classifier.Debug = cfg.Debug

	s := &Sketch{
		config:     cfg,
		store:      st,
		gate:       capture.NewGate(capture.NewMotionDetector(cfg.MotionThreshold), capture.IdleTimeout),
		classifier: classifier,
		field:      particle.NewField(width, height, nil),
		renderer:   render.NewRenderer(width, height),
		rotator:    rotator,
		windowed:   image.Pt(width, height),
		stream:     cfg.ServerAddr != "",
	}
	s.size.Store(&image.Point{X: width, Y: height})

	if !cfg.NoCamera {
		s.camera = capture.NewCamera(cfg.CameraID, capture.DefaultWidth, capture.DefaultHeight)

		// Try MediaPipe first, fall back to the mock detector
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
			s.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			s.detector = detector.NewMockDetector()
		}
	}

	first, err := imagery.LoadImage(rotator.Current(), width, cfg.Stride)
	if err != nil {
		s.renderer.Close()
		return nil, fmt.Errorf("load first image: %w", err)
	}
	s.apply(first)
	s.publish(nil)

	return s, nil
}

// apply replaces the particles and background with a freshly loaded image.
func (s *Sketch) apply(img *imagery.Image) {
	s.field.Seed(img.Points)
	if err := s.renderer.SetBackground(img.Pixels); err != nil {
		log.Printf("Failed to set background for %s: %v", img.Path, err)
	}
	s.image = img.Path
	log.Printf("Showing %s with %d particles", img.Path, s.field.Len())
}

// SetDetector replaces the hand detector. Call before Run.
func (s *Sketch) SetDetector(d detector.Detector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector = d
}

// SetCamera replaces the camera. A nil camera disables hand tracking. Call before Run.
func (s *Sketch) SetCamera(c capture.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = c
}

// Detector returns the hand detector.
func (s *Sketch) Detector() detector.Detector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detector
}

// Camera returns the camera, or nil when running without one.
func (s *Sketch) Camera() capture.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetPaused freezes or resumes the particle update. Rendering continues.
func (s *Sketch) SetPaused(paused bool) {
	s.paused.Store(paused)
	if paused {
		log.Println("Sketch paused")
	} else {
		log.Println("Sketch resumed")
	}
}

// Paused reports whether the particle update is frozen.
func (s *Sketch) Paused() bool {
	return s.paused.Load()
}

// RequestSnapshot asks the frame loop to save the canvas after the next frame.
func (s *Sketch) RequestSnapshot() {
	s.snapshot.Store(true)
}

// State returns the state published by the most recent frame.
func (s *Sketch) State() State {
	st, _ := s.state.Peek()
	return st
}

// Frame returns the most recent rendered frame as JPEG.
// It is only populated when the HTTP viewer is enabled.
func (s *Sketch) Frame() ([]byte, bool) {
	return s.frame.Peek()
}

// Size returns the current canvas size.
func (s *Sketch) Size() image.Point {
	return *s.size.Load()
}

func (s *Sketch) resize(width, height int) {
	s.field.Resize(width, height)
	s.renderer.Resize(width, height)
	s.size.Store(&image.Point{X: width, Y: height})
	log.Printf("Canvas resized to %dx%d", width, height)
}

func (s *Sketch) publish(hands []detector.HandLandmarks) {
	size := s.Size()
	s.state.Put(State{
		Grip:      s.classifier.Grip(),
		MSE:       s.classifier.LastMSE(),
		Hands:     hands,
		Particles: s.field.Len(),
		Image:     s.image,
		Paused:    s.paused.Load(),
		Width:     size.X,
		Height:    size.Y,
		Frame:     s.frames,
		UpdatedAt: time.Now(),
	})
}

// Close releases the renderer and the hand detector.
func (s *Sketch) Close() {
	s.renderer.Close()
	s.gate.Close()

	if d := s.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
}
