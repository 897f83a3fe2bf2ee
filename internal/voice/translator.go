package voice

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Translator translates text between language codes.
type Translator interface {
	Translate(text, source, target string) (string, error)
}

// HTTPTranslator talks to a LibreTranslate-compatible translation service.
type HTTPTranslator struct {
	client *resty.Client
	logger *zap.SugaredLogger
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// NewHTTPTranslator creates a translator client for the given endpoint.
func NewHTTPTranslator(url string, logger *zap.SugaredLogger) *HTTPTranslator {
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPTranslator{
		client: client,
		logger: logger,
	}
}

// Translate translates text from the source to the target language code.
func (t *HTTPTranslator) Translate(text, source, target string) (string, error) {
	var result translateResponse
	resp, err := t.client.R().
		SetBody(translateRequest{Q: text, Source: source, Target: target, Format: "text"}).
		SetResult(&result).
		Post("")

	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("translation service returned %s", resp.Status())
	}

	t.logger.Debugw("translated text",
		"source", source,
		"target", target,
		"text", text,
		"translated", result.TranslatedText,
	)
	return result.TranslatedText, nil
}
