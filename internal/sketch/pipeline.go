package sketch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gentle/internal/capture"
	"github.com/ayusman/gentle/internal/detector"
	"github.com/ayusman/gentle/internal/imagery"
	"github.com/ayusman/gentle/internal/render"
)

// ErrQuit is returned by the frame loop when the user closes the sketch.
var ErrQuit = errors.New("quit requested")

const (
	keyEsc = 27

	// cv::EVENT_LBUTTONDOWN
	mouseLeftButtonDown = 1
)

// Run opens the camera and drives the sketch until ctx is done or the user
// quits. The frame loop runs on the calling goroutine, so GUI platforms that
// need the main thread should call Run from main. The pose and image
// rotation producers run alongside it and hand results over through
// single-slot mailboxes.
func (s *Sketch) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cam := s.Camera()
	if cam != nil {
		if err := cam.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		size := cam.Size()
		log.Printf("Camera opened at %dx%d", size.X, size.Y)
		defer func() {
			if err := cam.Close(); err != nil {
				log.Printf("Error closing camera: %v", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	if cam != nil {
		g.Go(func() error { return s.runPoses(gctx, cam) })
	}
	g.Go(func() error { return s.runRotation(gctx) })

	log.Println("Sketch started")
	loopErr := s.runFrames(gctx)
	cancel()
	groupErr := g.Wait()
	log.Println("Sketch stopped")

	for _, err := range []error{loopErr, groupErr} {
		if err != nil && !stopped(err) {
			return err
		}
	}
	return nil
}

// stopped reports whether err only signals a normal shutdown.
func stopped(err error) bool {
	return errors.Is(err, ErrQuit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// runPoses reads camera frames and publishes the detected hands.
//
// Pipeline logic:
// 1. Start in idle mode (capture.IdleFPS)
// 2. On motion, switch to active mode (capture.ActiveFPS) and run detection
// 3. After capture.IdleTimeout without motion, switch back to idle
// 4. While idle the hands mailbox keeps its last batch
func (s *Sketch) runPoses(ctx context.Context, cam capture.Camera) error {
	cam.SetFPS(s.gate.FPS())
	ticker := time.NewTicker(time.Second / time.Duration(s.gate.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			frame, err := cam.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			changed := s.track(frame, now)
			frame.Close()

			if changed {
				fps := s.gate.FPS()
				cam.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}

// track runs one camera frame through the motion gate and, when active, the
// hand detector. It reports whether the gate switched mode.
func (s *Sketch) track(frame *gocv.Mat, now time.Time) bool {
	active, changed := s.gate.Observe(frame, now)
	if changed {
		if active {
			log.Println("Switched to active mode")
		} else {
			log.Println("Switched to idle mode")
		}
	}

	d := s.Detector()
	if !active || d == nil {
		return changed
	}

	hands, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return changed
	}

	size := s.Size()
	scaled := make([]detector.HandLandmarks, 0, len(hands))
	for i := range hands {
		scaled = append(scaled, *hands[i].ToPixels(size.X, size.Y))
	}
	s.hands.Put(scaled)

	return changed
}

// runRotation loads the next image every rotation interval.
func (s *Sketch) runRotation(ctx context.Context) error {
	return s.rotator.Run(ctx, s.loadImage)
}

// loadImage samples path at the current canvas width and hands it to the
// frame loop. On failure the current particles keep animating.
func (s *Sketch) loadImage(path string) {
	img, err := imagery.LoadImage(path, s.Size().X, s.config.Stride)
	if err != nil {
		log.Printf("Failed to load image %s: %v", path, err)
		return
	}
	s.images.Put(img)
}

// runFrames is the animation loop. It owns the field, classifier and renderer.
func (s *Sketch) runFrames(ctx context.Context) error {
	var window *gocv.Window
	if !s.config.Headless {
		window = gocv.NewWindow(WindowName)
		defer window.Close()
		window.SetMouseHandler(s.onMouse, nil)
	}

	ticker := time.NewTicker(time.Second / time.Duration(s.config.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.step()

			if s.snapshot.Swap(false) {
				if _, err := s.saveSnapshot(); err != nil {
					log.Printf("Failed to save snapshot: %v", err)
				}
			}

			if window == nil {
				continue
			}

			if err := s.present(window); err != nil {
				return err
			}
		}
	}
}

// step advances the sketch by one frame.
func (s *Sketch) step() {
	if img, ok := s.images.Take(); ok {
		s.apply(img)
	}

	hands, _ := s.hands.Peek()
	grip := s.classifier.Classify(hands)

	if !s.paused.Load() {
		s.field.Update(grip)
	}

	s.renderer.Draw(s.field.Particles(), hands)
	s.frames++

	if s.stream {
		data, err := s.renderer.EncodeJPEG()
		if err != nil {
			log.Printf("Error encoding frame: %v", err)
		} else {
			s.frame.Put(data)
		}
	}

	s.publish(hands)
}

// windowControl is the part of *gocv.Window the frame loop drives.
type windowControl interface {
	IMShow(img gocv.Mat) error
	WaitKey(delay int) int
	SetWindowProperty(prop gocv.WindowPropertyFlag, value gocv.WindowFlag) error
}

// present shows the canvas and applies the input gathered while waiting
// for a key, including clicks reported through onMouse.
func (s *Sketch) present(window windowControl) error {
	if err := window.IMShow(*s.renderer.Canvas()); err != nil {
		log.Printf("Error showing frame: %v", err)
	}
	if err := s.handleKey(window, window.WaitKey(1)); err != nil {
		return err
	}
	if s.click.Swap(false) {
		s.toggleFullscreen(window)
	}
	return nil
}

func (s *Sketch) handleKey(window windowControl, key int) error {
	switch key {
	case 's', 'S':
		s.RequestSnapshot()
	case 'f', 'F':
		s.toggleFullscreen(window)
	case 'q', 'Q', keyEsc:
		return ErrQuit
	}
	return nil
}

// onMouse runs inside WaitKey. A left click strictly inside the canvas
// requests a fullscreen toggle, which the frame loop applies.
func (s *Sketch) onMouse(event, x, y, flags int, userdata interface{}) {
	if event != mouseLeftButtonDown {
		return
	}
	size := s.Size()
	if x > 0 && x < size.X && y > 0 && y < size.Y {
		s.click.Store(true)
	}
}

// toggleFullscreen switches the window and resizes the canvas to match.
// The particles are kept.
func (s *Sketch) toggleFullscreen(window windowControl) {
	s.fullscreen = !s.fullscreen

	if s.fullscreen {
		if window != nil {
			if err := window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen); err != nil {
				log.Printf("Error entering fullscreen: %v", err)
			}
		}
		s.resize(render.ScreenSize())
		return
	}

	if window != nil {
		if err := window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowNormal); err != nil {
			log.Printf("Error leaving fullscreen: %v", err)
		}
	}
	s.resize(s.windowed.X, s.windowed.Y)
}
