// Package lang validates language hints passed to the transcription and
// notes backends.
package lang

import (
	"fmt"
	"strings"
)

// validLanguages lists the ISO 639-1 codes accepted by the transcription API.
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

// Language is a validated language hint such as "en" or "pt-BR".
// The zero value means "not specified" (auto-detect).
type Language struct {
	code string // normalized: lowercase, hyphen separated
}

// Parse validates s and returns the corresponding Language.
// Accepts ISO 639-1 codes ("en", "fr") and locales ("pt-BR", "zh_CN").
// An empty string yields the zero Language.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}
	code := normalize(s)
	if !validLanguages[base(code)] {
		return Language{}, fmt.Errorf("%w %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR')", ErrInvalid, s)
	}
	return Language{code: code}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants in tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// IsZero reports whether no language was specified.
func (l Language) IsZero() bool {
	return l.code == ""
}

// String returns the normalized code, e.g. "pt-br".
func (l Language) String() string {
	return l.code
}

// BaseCode returns the ISO 639-1 code without region ("pt-br" -> "pt").
// The transcription API only accepts base codes.
func (l Language) BaseCode() string {
	return base(l.code)
}

// IsEnglish reports whether the language is English or an English locale.
func (l Language) IsEnglish() bool {
	return l.BaseCode() == "en"
}

// DisplayName returns a human-readable name, falling back to the code.
// Used in the notes prompt instruction.
func (l Language) DisplayName() string {
	if name, ok := displayNames[l.code]; ok {
		return name
	}
	if name, ok := displayNames[base(l.code)]; ok {
		return name
	}
	return l.code
}

// normalize lowercases a code and uses hyphen separators: "pt_BR" -> "pt-br".
func normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

func base(code string) string {
	b, _, _ := strings.Cut(code, "-")
	return b
}

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
	"uk":    "Ukrainian",
}
