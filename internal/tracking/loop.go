package tracking

import (
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/automation"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/capture"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/detector"
)

// Tracker runs the head-tracking loop: camera frame -> face landmarks ->
// cursor move + blink click, until the stop channel closes or a fatal error
// terminates the loop.
type Tracker struct {
	camera capture.Camera
	det    detector.Detector
	auto   automation.Automator
	blink  *BlinkDetector
	fps    int
	logger *zap.SugaredLogger
}

// NewTracker creates a Tracker. fps controls how often frames are processed.
func NewTracker(camera capture.Camera, det detector.Detector, auto automation.Automator, blink *BlinkDetector, fps int, logger *zap.SugaredLogger) *Tracker {
	return &Tracker{
		camera: camera,
		det:    det,
		auto:   auto,
		blink:  blink,
		fps:    fps,
		logger: logger,
	}
}

// Run processes frames until stop closes or the loop hits a fatal error.
// The camera handle is released on every exit path. Transient conditions
// (no face in a frame) skip the iteration; losing the camera feed or a
// detector failure terminates the loop without restart.
func (t *Tracker) Run(stop <-chan struct{}) error {
	if err := t.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := t.camera.Close(); err != nil {
			t.logger.Errorw("closing camera", "error", err)
		}
	}()

	cursor := NewCursorMapper(t.auto)

	ticker := time.NewTicker(time.Second / time.Duration(t.fps))
	defer ticker.Stop()

	t.logger.Infow("head tracking started", "fps", t.fps)

	for {
		select {
		case <-stop:
			t.logger.Info("head tracking stopped")
			return nil
		case <-ticker.C:
			frame, err := t.camera.ReadFrame()
			if err != nil {
				t.logger.Errorw("camera feed lost", "error", err)
				return err
			}

			// Mirror horizontally so head movement maps naturally
			// onto cursor movement.
			mirrored := gocv.NewMat()
			gocv.Flip(*frame, &mirrored, 1)
			frame.Close()

			face, err := t.det.Detect(&mirrored)
			mirrored.Close()
			if err != nil {
				t.logger.Errorw("face detection failed", "error", err)
				return err
			}
			if face == nil {
				continue
			}

			cursor.Move(face.Cursor())

			if t.blink.Evaluate(face.EyeOpenness()) {
				t.auto.Click()
				t.logger.Debug("blink click")
			}
		}
	}
}
