package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const epsilon = 1e-9

func TestHandLandmarks_Mirror(t *testing.T) {
	t.Run("x is reflected around the center line", func(t *testing.T) {
		hand := HandLandmarks{
			Points:     []Point3D{{X: 0.2, Y: 0.3, Z: 0.1}, {X: 0.9, Y: 0.5, Z: -0.2}},
			Handedness: "Right",
			Score:      0.9,
		}

		mirrored := hand.Mirror()

		want := []Point3D{{X: 0.8, Y: 0.3, Z: 0.1}, {X: 0.1, Y: 0.5, Z: -0.2}}
		for i, p := range mirrored.Points {
			if math.Abs(p.X-want[i].X) > epsilon || p.Y != want[i].Y || p.Z != want[i].Z {
				t.Errorf("point %d = %+v, want %+v", i, p, want[i])
			}
		}

		if mirrored.Handedness != "Left" {
			t.Errorf("expected handedness Left, got %s", mirrored.Handedness)
		}
		if mirrored.Score != hand.Score {
			t.Errorf("expected score %f, got %f", hand.Score, mirrored.Score)
		}
	})

	t.Run("original is not modified", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		before := hand.Points[ThumbTip]

		hand.Mirror()

		if hand.Points[ThumbTip] != before {
			t.Error("Mirror should not modify the receiver")
		}
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.Mirror() != nil {
			t.Error("expected nil result for nil input")
		}
	})
}

func TestHandLandmarks_ToPixels(t *testing.T) {
	t.Run("scales x by width and y by height", func(t *testing.T) {
		hand := HandLandmarks{
			Points: []Point3D{{X: 0.5, Y: 0.25, Z: 0.3}, {X: 1, Y: 1}},
		}

		scaled := hand.ToPixels(640, 480)

		want := []Point3D{{X: 320, Y: 120, Z: 0.3}, {X: 640, Y: 480}}
		for i, p := range scaled.Points {
			if p != want[i] {
				t.Errorf("point %d = %+v, want %+v", i, p, want[i])
			}
		}
	})

	t.Run("keeps point count for short hands", func(t *testing.T) {
		hand := HandLandmarks{Points: []Point3D{{X: 0.1, Y: 0.1}}}

		if got := len(hand.ToPixels(100, 100).Points); got != 1 {
			t.Errorf("expected 1 point, got %d", got)
		}
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.ToPixels(10, 10) != nil {
			t.Error("expected nil result for nil input")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DetectionConfidence != 0.98 {
		t.Errorf("DetectionConfidence = %f, want 0.98", cfg.DetectionConfidence)
	}
	if cfg.ScoreThreshold != 0.75 {
		t.Errorf("ScoreThreshold = %f, want 0.75", cfg.ScoreThreshold)
	}
	if cfg.IoUThreshold != 0.3 {
		t.Errorf("IoUThreshold = %f, want 0.3", cfg.IoUThreshold)
	}
	if !cfg.FlipHorizontal {
		t.Error("FlipHorizontal should default to true")
	}
}

func TestMediaPipeDetector_Args(t *testing.T) {
	d := &MediaPipeDetector{config: DefaultConfig()}

	args := d.args()
	want := []string{
		"--max-hands", "2",
		"--detection-confidence", "0.98",
		"--score-threshold", "0.75",
		"--iou-threshold", "0.3",
	}

	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	jpeg := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}

	if err := writeFrame(&buf, jpeg); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	got := buf.Bytes()
	if len(got) != 4+len(jpeg) {
		t.Fatalf("wrote %d bytes, want %d", len(got), 4+len(jpeg))
	}
	if n := binary.BigEndian.Uint32(got[:4]); n != uint32(len(jpeg)) {
		t.Errorf("length prefix = %d, want %d", n, len(jpeg))
	}
	if !bytes.Equal(got[4:], jpeg) {
		t.Errorf("payload = %v, want %v", got[4:], jpeg)
	}
}

func TestReadHands(t *testing.T) {
	t.Run("parses one reply per line", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader(
			`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left","score":0.9}]}` + "\n" +
				`{"hands":[]}` + "\n"))

		hands, err := readHands(r)
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}
		if len(hands) != 1 || hands[0].Handedness != "Left" || len(hands[0].Points) != 1 {
			t.Errorf("unexpected first reply: %+v", hands)
		}

		hands, err = readHands(r)
		if err != nil {
			t.Fatalf("readHands() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("malformed reply", func(t *testing.T) {
		if _, err := readHands(bufio.NewReader(strings.NewReader("not json\n"))); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("closed pipe", func(t *testing.T) {
		if _, err := readHands(bufio.NewReader(strings.NewReader(""))); err == nil {
			t.Error("expected a read error")
		}
	})
}

func TestFindInstalled(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", serviceScript), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got := findInstalled(filepath.Join("scripts", serviceScript))
	if want := filepath.Join(dir, "scripts", serviceScript); got != want {
		t.Errorf("findInstalled() = %q, want %q", got, want)
	}
	if got := findInstalled("no/such/file"); got != "" {
		t.Errorf("findInstalled() = %q for a missing file, want empty", got)
	}
}

func TestJSONHand_ToHandLandmarks(t *testing.T) {
	h := jsonHand{
		Points:     []jsonPoint{{X: 0.1, Y: 0.2, Z: 0.3}, {X: 0.4, Y: 0.5, Z: 0.6}},
		Handedness: "Left",
		Score:      0.97,
	}

	lm := h.toHandLandmarks()

	if len(lm.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(lm.Points))
	}
	if lm.Points[1] != (Point3D{X: 0.4, Y: 0.5, Z: 0.6}) {
		t.Errorf("unexpected point: %+v", lm.Points[1])
	}
	if lm.Handedness != "Left" || lm.Score != 0.97 {
		t.Errorf("metadata not preserved: %+v", lm)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()

		mock.SetHands([]HandLandmarks{FistLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestFistLandmarks(t *testing.T) {
	landmarks := FistLandmarks()

	if len(landmarks.Points) != NumLandmarks {
		t.Fatalf("expected %d points, got %d", NumLandmarks, len(landmarks.Points))
	}

	t.Run("all points fit in a small box", func(t *testing.T) {
		for i, p := range landmarks.Points {
			if p.X < 0.45 || p.X > 0.55 || p.Y < 0.60 || p.Y > 0.70 {
				t.Errorf("point %d at (%f, %f) is outside the fist box", i, p.X, p.Y)
			}
		}
	})

	t.Run("fingertips are tucked below the knuckles", func(t *testing.T) {
		pairs := [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}}
		for _, pair := range pairs {
			if landmarks.Points[pair[1]].Y <= landmarks.Points[pair[0]].Y {
				t.Errorf("tip %d should be below knuckle %d (higher Y value)", pair[1], pair[0])
			}
		}
	})
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	if len(landmarks.Points) != NumLandmarks {
		t.Fatalf("expected %d points, got %d", NumLandmarks, len(landmarks.Points))
	}

	t.Run("all fingers are extended", func(t *testing.T) {
		minExtension := 0.2

		pairs := [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}}
		for _, pair := range pairs {
			extension := landmarks.Points[pair[0]].Y - landmarks.Points[pair[1]].Y
			if extension < minExtension {
				t.Errorf("finger %d not extended enough (extension: %f), expected >= %f", pair[1], extension, minExtension)
			}
		}
	})

	t.Run("thumb is extended to the side", func(t *testing.T) {
		if landmarks.Points[ThumbTip].X <= landmarks.Points[ThumbMCP].X {
			t.Error("thumb tip should be to the right of thumb MCP (extended outward)")
		}
	})
}
