package voice

// speechCodes maps spoken-language codes to the locale-qualified codes the
// transcription service expects.
var speechCodes = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"ar": "ar-AR",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-PT",
	"ru": "ru-RU",
	"zh": "zh-CN",
	"ja": "ja-JP",
}

// SpeechCode derives the transcription locale for a spoken-language code.
// Unknown codes fall back to "en-US".
func SpeechCode(lang string) string {
	if code, ok := speechCodes[lang]; ok {
		return code
	}
	return "en-US"
}

// SupportedLanguage reports whether the portal accepts the given
// spoken-language code.
func SupportedLanguage(lang string) bool {
	_, ok := speechCodes[lang]
	return ok
}
