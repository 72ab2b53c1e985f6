// Package detector derives platform, language and quality signals from a document.
package detector

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dtnitsch/higdocs/models"
	"github.com/pemistahl/lingua-go"
)

// Quality bands.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// Platform names as stored in the index.
const (
	PlatformIOS       = "ios"
	PlatformIPadOS    = "ipados"
	PlatformMacOS     = "macos"
	PlatformTVOS      = "tvos"
	PlatformVisionOS  = "visionos"
	PlatformWatchOS   = "watchos"
	PlatformUniversal = "universal"
)

var platformPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{PlatformIOS, regexp.MustCompile(`\biOS\b`)},
	{PlatformIPadOS, regexp.MustCompile(`\biPadOS\b`)},
	{PlatformMacOS, regexp.MustCompile(`\bmacOS\b`)},
	{PlatformTVOS, regexp.MustCompile(`\btvOS\b`)},
	{PlatformVisionOS, regexp.MustCompile(`\bvisionOS\b`)},
	{PlatformWatchOS, regexp.MustCompile(`\bwatchOS\b`)},
}

// Platforms returns the lower-cased platforms a document applies to: the
// front matter platform plus every platform named in the body. The result
// is sorted and free of duplicates.
func Platforms(fm *models.FrontMatter, body string) []string {
	seen := map[string]struct{}{}
	if p := strings.ToLower(strings.TrimSpace(fm.Platform)); p != "" {
		seen[p] = struct{}{}
	}
	for _, pp := range platformPatterns {
		if pp.pattern.MatchString(body) {
			seen[pp.name] = struct{}{}
		}
	}

	platforms := make([]string, 0, len(seen))
	for p := range seen {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// QualityBand buckets a qualityScore.
func QualityBand(score float64) string {
	switch {
	case score >= 0.8:
		return BandHigh
	case score >= 0.5:
		return BandMedium
	default:
		return BandLow
	}
}

// maxLanguageSample caps the text handed to the language detector.
const maxLanguageSample = 2000

var (
	languageOnce     sync.Once
	languageDetector lingua.LanguageDetector
)

func detectorInstance() lingua.LanguageDetector {
	languageOnce.Do(func() {
		languageDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.French, lingua.German, lingua.Spanish,
				lingua.Japanese, lingua.Chinese, lingua.Korean, lingua.Portuguese,
			).
			Build()
	})
	return languageDetector
}

// Language returns the ISO 639-1 code of the text's language and the
// detector's confidence. Empty or undecidable text yields "".
func Language(text string) (string, float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0
	}
	if runes := []rune(text); len(runes) > maxLanguageSample {
		text = string(runes[:maxLanguageSample])
	}

	det := detectorInstance()
	lang, ok := det.DetectLanguageOf(text)
	if !ok {
		return "", 0
	}
	return strings.ToLower(lang.IsoCode639_1().String()), det.ComputeLanguageConfidence(text, lang)
}
