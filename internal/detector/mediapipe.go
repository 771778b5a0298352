package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const serviceScript = "handpose_service.py"

// errNoService is returned when handpose_service.py cannot be located.
var errNoService = errors.New(serviceScript + " not found")

// MediaPipeDetector tracks hands through scripts/handpose_service.py, a
// Python MediaPipe Hands process fed over stdin/stdout. The process starts
// on the first Detect and exits again once the camera stops feeding it.
type MediaPipeDetector struct {
	config Config
	script string

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	idleTimer *time.Timer
}

// idleShutdown stops the hand tracker after this long without a frame,
// e.g. while the sketch runs with the camera covered or unplugged.
const idleShutdown = 30 * time.Second

// NewMediaPipeDetector locates the hand tracking service. It fails when the
// script is missing so the sketch can fall back to running without hands.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := findInstalled(filepath.Join("scripts", serviceScript))
	if script == "" {
		return nil, errNoService
	}
	return &MediaPipeDetector{config: config, script: script}, nil
}

// Detect sends one camera frame to the tracker and returns the hands it
// found, mirrored when the camera preview is flipped.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	raw, err := readHands(d.stdout)
	if err != nil {
		return nil, err
	}

	hands := make([]HandLandmarks, 0, len(raw))
	for _, h := range raw {
		hand := h.toHandLandmarks()
		if d.config.FlipHorizontal {
			hand = *hand.Mirror()
		}
		hands = append(hands, hand)
	}

	d.armIdleTimer()
	return hands, nil
}

// Close stops the tracker process if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

// start launches the tracker with the configured thresholds. Called with mu held.
func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	python := findInstalled(filepath.Join("venv", "bin", "python"))
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, append([]string{d.script}, d.args()...)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	// MediaPipe logs its model loading here.
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start hand tracker: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

// args renders the detector thresholds as command line flags for the service.
func (d *MediaPipeDetector) args() []string {
	return []string{
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--detection-confidence", strconv.FormatFloat(d.config.DetectionConfidence, 'f', -1, 64),
		"--score-threshold", strconv.FormatFloat(d.config.ScoreThreshold, 'f', -1, 64),
		"--iou-threshold", strconv.FormatFloat(d.config.IoUThreshold, 'f', -1, 64),
	}
}

// stop closes the tracker's stdin, which ends its read loop, and waits for
// it to exit. Called with mu held.
func (d *MediaPipeDetector) stop() error {
	if d.cmd == nil {
		return nil
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()

	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stop()
	})
}

// writeFrame sends one encoded frame as a 4-byte big-endian length followed
// by the JPEG bytes.
func writeFrame(w io.Writer, jpeg []byte) error {
	msg := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(jpeg)), uint32(len(jpeg)))
	msg = append(msg, jpeg...)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readHands reads the tracker's one-line JSON reply to a frame.
func readHands(r *bufio.Reader) ([]jsonHand, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read hands: %w", err)
	}

	var reply struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse hands: %w", err)
	}
	return reply.Hands, nil
}

// findInstalled resolves rel against the working directory, its parents,
// the binary's directory and ~/.gentle, returning the first that exists.
func findInstalled(rel string) string {
	roots := []string{".", "..", filepath.Join("..", "..")}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".gentle"))
	}

	for _, root := range roots {
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// jsonHand is one hand in the tracker's reply. Points are normalized to the frame.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	points := make([]Point3D, len(h.Points))
	for i, p := range h.Points {
		points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}
	return HandLandmarks{Points: points, Handedness: h.Handedness, Score: h.Score}
}
