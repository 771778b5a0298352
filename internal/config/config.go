// Package config loads the sketch settings from defaults, an optional TOML
// file and GENTLE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/ayusman/gentle/internal/detector"
	"github.com/ayusman/gentle/internal/gesture"
	"github.com/ayusman/gentle/internal/imagery"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "GENTLE_"

// Config holds everything needed to start the sketch.
type Config struct {
	// Images are shown in order and cycled forever.
	Images []string `toml:"images" env:"IMAGES" envSeparator:","`
	// RotateInterval is how long each image stays on screen.
	RotateInterval time.Duration `toml:"rotate_interval" env:"ROTATE_INTERVAL"`
	// Stride is the sampling grid spacing in pixels.
	Stride int `toml:"stride" env:"STRIDE"`

	CameraID int `toml:"camera_id" env:"CAMERA_ID"`
	// NoCamera runs the sketch without hand tracking.
	NoCamera bool `toml:"no_camera" env:"NO_CAMERA"`
	// Width and Height size the canvas. Zero means the screen size.
	Width  int `toml:"width" env:"WIDTH"`
	Height int `toml:"height" env:"HEIGHT"`

	Detector detector.Config `toml:"detector" envPrefix:"DETECTOR_"`

	GripThreshold   float64 `toml:"grip_threshold" env:"GRIP_THRESHOLD"`
	ClassifierMode  string  `toml:"classifier_mode" env:"CLASSIFIER_MODE"`
	MotionThreshold float64 `toml:"motion_threshold" env:"MOTION_THRESHOLD"`

	FrameRate int `toml:"frame_rate" env:"FRAME_RATE"`

	// ServerAddr enables the HTTP viewer when set.
	ServerAddr string `toml:"server_addr" env:"SERVER_ADDR"`
	DataDir    string `toml:"data_dir" env:"DATA_DIR"`

	Headless bool `toml:"headless" env:"HEADLESS"`
	Tray     bool `toml:"tray" env:"TRAY"`
	Debug    bool `toml:"debug" env:"DEBUG"`
}

// Default returns the settings the sketch was designed around.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		RotateInterval:  imagery.DefaultInterval,
		Stride:          imagery.DefaultStride,
		Detector:        detector.DefaultConfig(),
		GripThreshold:   gesture.DefaultThreshold,
		ClassifierMode:  string(gesture.ModeCumulative),
		MotionThreshold: 5.0,
		FrameRate:       30,
		DataDir:         filepath.Join(home, ".gentle"),
		Tray:            true,
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped
// when path is empty or the file does not exist) and the environment.
// The result is not validated so callers can still apply flags.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	for i, img := range cfg.Images {
		cfg.Images[i] = expandHome(img)
	}

	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Validate reports the first setting the sketch cannot run with.
func (c Config) Validate() error {
	if len(c.Images) == 0 {
		return fmt.Errorf("config: %w", imagery.ErrNoImages)
	}
	if c.RotateInterval <= 0 {
		return errors.New("config: rotate_interval must be positive")
	}
	if c.Stride <= 0 {
		return errors.New("config: stride must be positive")
	}
	if c.FrameRate <= 0 {
		return errors.New("config: frame_rate must be positive")
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New("config: canvas size cannot be negative")
	}
	if c.GripThreshold <= 0 {
		return errors.New("config: grip_threshold must be positive")
	}
	if c.Detector.MaxHands < 1 {
		return errors.New("config: detector.max_hands must be at least 1")
	}
	for name, v := range map[string]float64{
		"detection_confidence": c.Detector.DetectionConfidence,
		"score_threshold":      c.Detector.ScoreThreshold,
		"iou_threshold":        c.Detector.IoUThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: detector.%s must be within [0, 1], got %v", name, v)
		}
	}
	if _, err := gesture.ParseMode(c.ClassifierMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Mode returns the parsed classifier mode. Call Validate first.
func (c Config) Mode() gesture.Mode {
	m, _ := gesture.ParseMode(c.ClassifierMode)
	return m
}

// SnapshotDir is where saved drawings are written.
func (c Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// DatabasePath is the sqlite file holding the snapshot gallery.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gentle.db")
}
