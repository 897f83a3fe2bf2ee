package voice

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// FrameSize is the number of samples per capture frame (20ms at 16kHz).
const FrameSize = 320

// UtteranceFunc is invoked once per detected utterance with the raw PCM.
type UtteranceFunc func(pcm []int16)

// Listener captures microphone audio in the background and invokes a
// callback for each detected utterance. Its internal scheduling is opaque to
// callers; the callback fires zero or more times, asynchronously, until Stop.
type Listener struct {
	segmenter *Segmenter
	callback  UtteranceFunc
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewListener creates a Listener. It fails if no input device is available,
// letting the caller degrade to head-tracking only.
func NewListener(vadThreshold float64, callback UtteranceFunc, logger *zap.SugaredLogger) (*Listener, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio subsystem: %w", err)
	}

	input, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("no input device: %w", err)
	}

	buffer := make([]int16, FrameSize)

	params := portaudio.LowLatencyParameters(input, nil)
	params.Input.Channels = Channels
	params.Output.Device = nil
	params.Output.Channels = 0
	params.SampleRate = SampleRate
	params.FramesPerBuffer = FrameSize

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open capture stream: %w", err)
	}

	// 25 hold frames = 500ms of silence closes an utterance; 500 frames
	// caps an utterance at 10s.
	return &Listener{
		segmenter: NewSegmenter(vadThreshold, 25, 500),
		callback:  callback,
		logger:    logger,
		stream:    stream,
		buffer:    buffer,
	}, nil
}

// Start begins background capture.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	if err := l.stream.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.running = true
	go l.run(l.stopCh, l.doneCh)

	l.logger.Info("voice capture started")
	return nil
}

// Stop halts capture and waits for the capture goroutine to exit. In-flight
// utterance callbacks are not interrupted.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	close(l.stopCh)
	l.running = false
	done := l.doneCh
	l.mu.Unlock()

	<-done

	if err := l.stream.Stop(); err != nil {
		l.logger.Errorw("stopping capture stream", "error", err)
	}
	l.logger.Info("voice capture stopped")
}

// Close releases the stream and audio subsystem.
func (l *Listener) Close() error {
	l.Stop()
	err := l.stream.Close()
	portaudio.Terminate()
	return err
}

func (l *Listener) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := l.stream.Read(); err != nil {
			l.logger.Errorw("microphone read failed", "error", err)
			return
		}

		if utterance := l.segmenter.Process(l.buffer); utterance != nil {
			// Dispatch asynchronously so a slow transcription call
			// never blocks capture.
			go l.callback(utterance)
		}
	}
}
