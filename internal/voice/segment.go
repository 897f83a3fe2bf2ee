package voice

import "math"

// Segmenter groups microphone frames into utterances using RMS-energy voice
// activity detection. A pre-buffer of recent silent frames is prepended when
// voice starts so word onsets are not clipped; after voice stops, the
// utterance closes once holdFrames consecutive quiet frames pass.
type Segmenter struct {
	threshold  float64
	holdFrames int
	maxFrames  int

	preBuffer  [][]int16
	preBufSize int
	preBufIdx  int

	active  bool
	silence int
	frames  [][]int16
}

// NewSegmenter creates a Segmenter.
// threshold: RMS energy threshold (typical: 300-1000 for int16 PCM).
// holdFrames: quiet frames before an utterance closes (e.g. 25 = 500ms at 20ms/frame).
// maxFrames: hard cap on utterance length; the utterance closes when reached.
func NewSegmenter(threshold float64, holdFrames, maxFrames int) *Segmenter {
	const preBufferFrames = 3
	return &Segmenter{
		threshold:  threshold,
		holdFrames: holdFrames,
		maxFrames:  maxFrames,
		preBufSize: preBufferFrames,
		preBuffer:  make([][]int16, preBufferFrames),
	}
}

// Process consumes one PCM frame and returns a completed utterance, or nil
// if no utterance finished on this frame.
func (s *Segmenter) Process(frame []int16) []int16 {
	rms := computeRMS(frame)

	if !s.active {
		if rms <= s.threshold {
			s.bufferFrame(frame)
			return nil
		}
		// Voice started: prepend the pre-buffer so the first word
		// isn't clipped.
		s.active = true
		s.silence = 0
		s.frames = append(s.frames[:0], s.preBuffered()...)
	}

	frameCopy := make([]int16, len(frame))
	copy(frameCopy, frame)
	s.frames = append(s.frames, frameCopy)

	if rms > s.threshold {
		s.silence = 0
	} else {
		s.silence++
	}

	if s.silence >= s.holdFrames || len(s.frames) >= s.maxFrames {
		return s.finish()
	}
	return nil
}

// Active reports whether an utterance is currently being collected.
func (s *Segmenter) Active() bool {
	return s.active
}

func (s *Segmenter) finish() []int16 {
	var total int
	for _, f := range s.frames {
		total += len(f)
	}
	utterance := make([]int16, 0, total)
	for _, f := range s.frames {
		utterance = append(utterance, f...)
	}

	s.active = false
	s.silence = 0
	s.frames = nil
	for i := range s.preBuffer {
		s.preBuffer[i] = nil
	}
	s.preBufIdx = 0

	return utterance
}

func (s *Segmenter) bufferFrame(frame []int16) {
	if s.preBufSize == 0 {
		return
	}
	frameCopy := make([]int16, len(frame))
	copy(frameCopy, frame)
	s.preBuffer[s.preBufIdx%s.preBufSize] = frameCopy
	s.preBufIdx++
}

// preBuffered returns the buffered frames in chronological order.
func (s *Segmenter) preBuffered() [][]int16 {
	var frames [][]int16
	count := s.preBufSize
	if s.preBufIdx < count {
		count = s.preBufIdx
	}
	start := s.preBufIdx - count
	for i := start; i < s.preBufIdx; i++ {
		frame := s.preBuffer[i%s.preBufSize]
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames
}

// computeRMS calculates the Root Mean Square of a PCM frame.
func computeRMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
