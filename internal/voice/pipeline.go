package voice

import (
	"strings"

	"go.uber.org/zap"
)

// Executor runs a recognized command. Satisfied by command.Interpreter.
type Executor interface {
	Execute(command string) string
}

// Pipeline turns one captured utterance into a dispatched command:
// transcribe in the speaker's language, translate to English when needed,
// then hand the text to the command interpreter.
type Pipeline struct {
	transcriber Transcriber
	translator  Translator
	exec        Executor
	// language returns the current session's spoken-language code.
	language func() string
	logger   *zap.SugaredLogger
}

// NewPipeline creates a Pipeline. language supplies the active session's
// spoken-language code at call time (it can change between utterances).
func NewPipeline(transcriber Transcriber, translator Translator, exec Executor, language func() string, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		translator:  translator,
		exec:        exec,
		language:    language,
		logger:      logger,
	}
}

// HandleUtterance processes one utterance. Transcription failures drop the
// utterance with no retry; translation failures fall back to executing the
// untranslated text.
func (p *Pipeline) HandleUtterance(pcm []int16) {
	lang := p.language()
	speechCode := SpeechCode(lang)

	text, err := p.transcriber.Transcribe(pcm, speechCode)
	if err != nil {
		p.logger.Errorw("speech recognition failed", "error", err, "speech_code", speechCode)
		return
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Infow("could not understand audio", "speech_code", speechCode)
		return
	}

	p.logger.Infow("heard", "language", lang, "text", text)

	if lang != "en" {
		translated, err := p.translator.Translate(text, lang, "en")
		if err != nil {
			// Fall back to the original text rather than dropping
			// the utterance.
			p.logger.Errorw("translation failed, executing original text", "error", err)
		} else {
			p.logger.Infow("translated to english", "text", translated)
			text = translated
		}
	}

	p.exec.Execute(strings.ToLower(text))
}
