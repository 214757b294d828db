package language

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minDetectLetters is the shortest sample the detector is trusted with.
const minDetectLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detect returns the ISO 639-1 code of text, or "" when the sample is too
// short or the detector is not confident.
func Detect(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minDetectLetters {
		return ""
	}

	lang, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(lang.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// The detector is expensive to build, so it is created on first use.
func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build()
	})
	return detector
}
