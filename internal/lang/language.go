package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains the ISO 639-1 base codes accepted for transcripts.
// Covers the languages supported by the transcription and generation backends.
var validLanguages = map[string]bool{
	"af": true, // Afrikaans
	"ar": true, // Arabic
	"bg": true, // Bulgarian
	"bn": true, // Bengali
	"ca": true, // Catalan
	"cs": true, // Czech
	"da": true, // Danish
	"de": true, // German
	"el": true, // Greek
	"en": true, // English
	"es": true, // Spanish
	"et": true, // Estonian
	"fa": true, // Persian
	"fi": true, // Finnish
	"fr": true, // French
	"gu": true, // Gujarati
	"he": true, // Hebrew
	"hi": true, // Hindi
	"hr": true, // Croatian
	"hu": true, // Hungarian
	"id": true, // Indonesian
	"it": true, // Italian
	"ja": true, // Japanese
	"kn": true, // Kannada
	"ko": true, // Korean
	"lt": true, // Lithuanian
	"lv": true, // Latvian
	"mk": true, // Macedonian
	"ml": true, // Malayalam
	"mr": true, // Marathi
	"ms": true, // Malay
	"nl": true, // Dutch
	"no": true, // Norwegian
	"pa": true, // Punjabi
	"pl": true, // Polish
	"pt": true, // Portuguese
	"ro": true, // Romanian
	"ru": true, // Russian
	"sk": true, // Slovak
	"sl": true, // Slovenian
	"sr": true, // Serbian
	"sv": true, // Swedish
	"sw": true, // Swahili
	"ta": true, // Tamil
	"te": true, // Telugu
	"th": true, // Thai
	"tl": true, // Tagalog
	"tr": true, // Turkish
	"uk": true, // Ukrainian
	"ur": true, // Urdu
	"vi": true, // Vietnamese
	"zh": true, // Chinese
}

// displayNames maps normalized codes to the names used in prompts.
var displayNames = map[string]string{
	"en":    "English",
	"en-us": "American English",
	"en-gb": "British English",
	"fr":    "French",
	"fr-ca": "Canadian French",
	"es":    "Spanish",
	"es-mx": "Mexican Spanish",
	"pt":    "Portuguese",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"de":    "German",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"ru":    "Russian",
	"ar":    "Arabic",
	"nl":    "Dutch",
	"pl":    "Polish",
	"sv":    "Swedish",
	"da":    "Danish",
	"no":    "Norwegian",
	"fi":    "Finnish",
}

// Language is a validated language code such as "ja", "en" or "pt-BR".
// The zero value means "unspecified" and is valid: transcription then
// auto-detects, and translation treats it as matching nothing.
type Language struct {
	code string // normalized: lowercase, hyphen separator
}

// Parse validates a language code and returns a Language.
// Empty input returns the zero Language without error.
// Accepts "pt-BR", "pt_BR", "PT-br"; rejects unknown base codes with ErrInvalid.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}
	normalized := Normalize(s)
	if !validLanguages[baseOf(normalized)] {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'ja', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{code: normalized}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

func baseOf(normalized string) string {
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}

// String returns the normalized code, or "" for the zero value.
func (l Language) String() string {
	return l.code
}

// IsZero reports whether no language was specified.
func (l Language) IsZero() bool {
	return l.code == ""
}

// Base returns the ISO 639-1 base code: "pt-br" -> "pt".
// Transcription APIs only accept base codes.
func (l Language) Base() string {
	return baseOf(l.code)
}

// SameAs reports whether both languages share a base code.
// Regional variants are considered the same language ("ja" == "ja-jp").
// A zero Language never matches, so an unknown source is always translated.
func (l Language) SameAs(other Language) bool {
	if l.IsZero() || other.IsZero() {
		return false
	}
	return l.Base() == other.Base()
}

// IsEnglish reports whether the language is English or a regional variant.
func (l Language) IsEnglish() bool {
	return l.Base() == "en"
}

// DisplayName returns a human-readable name for prompts.
// Falls back to the base language name, then to the code itself.
func (l Language) DisplayName() string {
	if name, ok := displayNames[l.code]; ok {
		return name
	}
	if name, ok := displayNames[l.Base()]; ok {
		return name
	}
	return l.code
}
