package ocr

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// tesseractCodes maps ISO 639-1 codes to Tesseract language packs.
var tesseractCodes = map[string]string{
	"en": "eng", "hi": "hin", "gu": "guj", "bn": "ben", "ta": "tam",
	"te": "tel", "mr": "mar", "pa": "pan", "ur": "urd", "kn": "kan",
	"ml": "mal", "or": "ori", "sa": "san",
}

// TesseractCode returns the Tesseract pack for an ISO 639-1 code, or "".
func TesseractCode(iso string) string {
	return tesseractCodes[strings.ToLower(iso)]
}

// LanguageDetector guesses the language of OCR output. It returns a
// Tesseract language code and a confidence in [0,1], or ("", 0) when the
// language is unknown or has no Tesseract mapping.
type LanguageDetector interface {
	Detect(sample string) (code string, confidence float64)
}

const detectSampleRunes = 1000

// WhatlangDetector detects languages with whatlanggo.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(sample string) (string, float64) {
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return "", 0
	}
	if utf8.RuneCountInString(sample) > detectSampleRunes {
		sample = string([]rune(sample)[:detectSampleRunes])
	}
	info := whatlanggo.Detect(sample)
	code := TesseractCode(info.Lang.Iso6391())
	if code == "" {
		return "", 0
	}
	return code, info.Confidence
}

// latinRatio is the share of ASCII letters among non-space characters.
func latinRatio(s string) float64 {
	var latin, total int
	for _, r := range s {
		if r == ' ' {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			latin++
		}
	}
	return float64(latin) / float64(max(total, 1))
}
