// Package voice implements the speech-to-command pipeline: microphone
// capture, utterance segmentation, transcription, translation and dispatch.
package voice

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Audio format produced by the listener and expected by the transcriber.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)

// Transcriber converts one utterance of PCM audio into text.
type Transcriber interface {
	// Transcribe returns the recognized text for the utterance using the
	// given locale-qualified speech code. An empty string with nil error
	// means the audio was unintelligible.
	Transcribe(pcm []int16, speechCode string) (string, error)
}

// HTTPTranscriber posts WAV-wrapped utterances to a whisper-style
// transcription service.
type HTTPTranscriber struct {
	client *resty.Client
	logger *zap.SugaredLogger
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// NewHTTPTranscriber creates a transcriber client for the given endpoint.
func NewHTTPTranscriber(url string, logger *zap.SugaredLogger) *HTTPTranscriber {
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "audio/wav").
		SetHeader("Accept", "application/json")

	return &HTTPTranscriber{
		client: client,
		logger: logger,
	}
}

// Transcribe wraps the PCM in a WAV container and posts it with the speech
// code as the language query parameter.
func (t *HTTPTranscriber) Transcribe(pcm []int16, speechCode string) (string, error) {
	wav := buildWAV(pcmBytes(pcm), SampleRate, Channels, BitsPerSample)

	var result transcribeResponse
	resp, err := t.client.R().
		SetQueryParam("language", speechCode).
		SetBody(wav).
		SetResult(&result).
		Post("")

	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcription service returned %s", resp.Status())
	}

	t.logger.Debugw("transcribed utterance",
		"speech_code", speechCode,
		"samples", len(pcm),
		"text", result.Text,
	)
	return result.Text, nil
}
