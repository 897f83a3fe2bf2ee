package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a scripted sequence of detection results.
type MockDetector struct {
	mu      sync.Mutex
	results []*FaceLandmarks
	index   int
	hold    bool
	err     error
	closed  bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetResults sets the sequence of faces returned by successive Detect calls.
// A nil entry means "no face in this frame". When hold is true the last
// entry repeats once the sequence is exhausted; otherwise Detect returns
// no face.
func (m *MockDetector) SetResults(results []*FaceLandmarks, hold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	m.index = 0
	m.hold = hold
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted result.
func (m *MockDetector) Detect(frame *gocv.Mat) (*FaceLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) == 0 {
		return nil, nil
	}
	if m.index >= len(m.results) {
		if m.hold {
			return m.results[len(m.results)-1], nil
		}
		return nil, nil
	}
	result := m.results[m.index]
	m.index++
	return result, nil
}

// Close marks the detector as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FaceAt returns a preset face with the cursor landmark at (x, y) and the
// left eye open.
func FaceAt(x, y float64) *FaceLandmarks {
	f := &FaceLandmarks{Score: 0.95}
	for i := range f.Points {
		f.Points[i] = Point{X: 0.5, Y: 0.5}
	}
	f.Points[CursorLandmark] = Point{X: x, Y: y}
	// Open eye: comfortable eyelid gap, well above any blink threshold.
	f.Points[LeftEyeUpper] = Point{X: 0.4, Y: 0.45}
	f.Points[LeftEyeLower] = Point{X: 0.4, Y: 0.47}
	return f
}

// BlinkingFaceAt returns a preset face with the cursor landmark at (x, y)
// and the left eye closed (eyelid gap below the click threshold).
func BlinkingFaceAt(x, y float64) *FaceLandmarks {
	f := FaceAt(x, y)
	f.Points[LeftEyeUpper] = Point{X: 0.4, Y: 0.4600}
	f.Points[LeftEyeLower] = Point{X: 0.4, Y: 0.4601}
	return f
}
