// Package detector provides face landmark detection for head tracking.
package detector

// Face-mesh landmark indices following the MediaPipe convention with iris
// refinement enabled (478 points; 468-477 are the refined iris points).
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	// LeftEyeLower and LeftEyeUpper are the eyelid landmarks used for
	// blink detection. In normalized image coordinates y grows downward,
	// so the lower lid has the larger y value.
	LeftEyeLower = 145
	LeftEyeUpper = 159

	// CursorLandmark is the iris landmark whose position drives the
	// cursor. The iris block (474-477) moves most smoothly with small
	// head movements; 475 is its second point.
	CursorLandmark = 475

	NumLandmarks = 478
)

// Point represents a normalized 2D landmark coordinate in [0, 1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceLandmarks represents the full set of face-mesh landmarks for one face.
type FaceLandmarks struct {
	Points [NumLandmarks]Point `json:"points"`
	Score  float64             `json:"score"`
}

// Cursor returns the landmark that drives the cursor.
func (f *FaceLandmarks) Cursor() Point {
	return f.Points[CursorLandmark]
}

// EyeOpenness returns the vertical distance between the lower and upper
// eyelid landmarks in normalized units. Near zero when the eye is closed.
func (f *FaceLandmarks) EyeOpenness() float64 {
	return f.Points[LeftEyeLower].Y - f.Points[LeftEyeUpper].Y
}
