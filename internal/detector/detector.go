package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Landmark coordinates are normalized to [0,1] relative to the frame.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int `toml:"max_hands" env:"MAX_HANDS"`

	// DetectionConfidence is the threshold for discarding a prediction (0.0-1.0).
	DetectionConfidence float64 `toml:"detection_confidence" env:"DETECTION_CONFIDENCE"`

	// ScoreThreshold is the minimum tracking confidence before MediaPipe
	// re-runs palm detection (0.0-1.0).
	ScoreThreshold float64 `toml:"score_threshold" env:"SCORE_THRESHOLD"`

	// IoUThreshold is passed to the hand tracker but has no effect: MediaPipe
	// Hands does its own non-max suppression with a fixed overlap (0.0-1.0).
	IoUThreshold float64 `toml:"iou_threshold" env:"IOU_THRESHOLD"`

	// FlipHorizontal mirrors the landmarks so the canvas behaves like a mirror.
	FlipHorizontal bool `toml:"flip_horizontal" env:"FLIP_HORIZONTAL"`
}

// DefaultConfig returns the thresholds the sketch was tuned with.
func DefaultConfig() Config {
	return Config{
		MaxHands:            2,
		DetectionConfidence: 0.98,
		ScoreThreshold:      0.75,
		IoUThreshold:        0.3,
		FlipHorizontal:      true,
	}
}
