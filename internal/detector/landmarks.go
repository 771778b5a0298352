// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the keypoints of one detected hand.
// MediaPipe always emits NumLandmarks points, but consumers must not rely on it.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Mirror returns a copy of the hand flipped around the vertical center line
// of a normalized frame. Handedness is swapped to match the mirrored image.
func (h *HandLandmarks) Mirror() *HandLandmarks {
	if h == nil {
		return nil
	}

	mirrored := &HandLandmarks{
		Points:     make([]Point3D, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	switch h.Handedness {
	case "Left":
		mirrored.Handedness = "Right"
	case "Right":
		mirrored.Handedness = "Left"
	}

	for i, p := range h.Points {
		mirrored.Points[i] = Point3D{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}

	return mirrored
}

// ToPixels returns a copy of the hand with normalized coordinates scaled to
// a width x height pixel space. Z is left untouched.
func (h *HandLandmarks) ToPixels(width, height int) *HandLandmarks {
	if h == nil {
		return nil
	}

	scaled := &HandLandmarks{
		Points:     make([]Point3D, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i, p := range h.Points {
		scaled.Points[i] = Point3D{
			X: p.X * float64(width),
			Y: p.Y * float64(height),
			Z: p.Z,
		}
	}

	return scaled
}
