// Package validate checks corpus front matter against the body it describes.
package validate

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dtnitsch/higdocs/models"
)

// Thresholds.
const (
	LowQualityScore        = 0.5
	ContentLengthTolerance = 0.10
	CanonicalHost          = "developer.apple.com"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	fencePattern = regexp.MustCompile("(?m)^ {0,3}(```|~~~)")
	imagePattern = regexp.MustCompile(`!\[[^\]]*\]\([^)\s]+[^)]*\)|<img\s`)
	knownMethods = map[string]bool{models.MethodCrawlee: true, models.MethodFallback: true}
)

// Document returns every issue found in a document. It never fails; the
// caller decides what to do with error-severity issues.
func Document(fm *models.FrontMatter, body string) []models.Issue {
	var issues []models.Issue
	errorf := func(field, format string, args ...any) {
		issues = append(issues, models.Issue{Field: field, Severity: models.SeverityError, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(field, format string, args ...any) {
		issues = append(issues, models.Issue{Field: field, Severity: models.SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(fm.Title) == "" {
		errorf("title", "title is empty")
	}

	switch {
	case fm.ID == "":
		errorf("id", "id is empty")
	case !slugPattern.MatchString(fm.ID):
		errorf("id", "id %q is not a lowercase hyphenated slug", fm.ID)
	}

	checkURL(fm.URL, errorf, warnf)

	if fm.LastUpdated.IsZero() {
		errorf("lastUpdated", "lastUpdated is missing")
	}

	if !inUnitRange(fm.QualityScore) {
		errorf("qualityScore", "qualityScore %v is outside [0, 1]", fm.QualityScore)
	} else if fm.QualityScore < LowQualityScore {
		warnf("qualityScore", "low quality extraction (%.2f)", fm.QualityScore)
	}
	if !inUnitRange(fm.Confidence) {
		errorf("confidence", "confidence %v is outside [0, 1]", fm.Confidence)
	}

	switch {
	case fm.ExtractionMethod == models.MethodFallback:
		warnf("extractionMethod", "fallback extraction may be partial")
	case !knownMethods[fm.ExtractionMethod]:
		warnf("extractionMethod", "unknown extraction method %q", fm.ExtractionMethod)
	}

	if fm.Platform == "" {
		warnf("platform", "platform is empty")
	}
	if fm.Category == "" {
		warnf("category", "category is empty")
	}
	if len(fm.Keywords) == 0 {
		warnf("keywords", "no keywords")
	}

	if fm.ContentLength < 0 {
		errorf("contentLength", "contentLength %d is negative", fm.ContentLength)
	} else if fm.ContentLength > 0 {
		actual := utf8.RuneCountInString(strings.TrimSpace(body))
		drift := math.Abs(float64(actual-fm.ContentLength)) / float64(fm.ContentLength)
		if drift > ContentLengthTolerance {
			warnf("contentLength", "contentLength %d differs from body length %d", fm.ContentLength, actual)
		}
	}

	if has := HasFencedCode(body); has != fm.HasCodeExamples {
		warnf("hasCodeExamples", "hasCodeExamples is %t but body code blocks found: %t", fm.HasCodeExamples, has)
	}
	if has := HasImages(body); has != fm.HasImages {
		warnf("hasImages", "hasImages is %t but body images found: %t", fm.HasImages, has)
	}

	return issues
}

func checkURL(raw string, errorf, warnf func(field, format string, args ...any)) {
	if raw == "" {
		errorf("url", "url is empty")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		errorf("url", "url %q is not an absolute https URL", raw)
		return
	}
	if !strings.EqualFold(u.Hostname(), CanonicalHost) {
		warnf("url", "url host %q is not %s", u.Hostname(), CanonicalHost)
	}
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// HasFencedCode reports whether the body contains a fenced code block.
func HasFencedCode(body string) bool {
	return fencePattern.MatchString(body)
}

// HasImages reports whether the body embeds an image.
func HasImages(body string) bool {
	return imagePattern.MatchString(body)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []models.Issue) bool {
	for _, i := range issues {
		if i.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings.
func Count(issues []models.Issue) (errs, warnings int) {
	for _, i := range issues {
		switch i.Severity {
		case models.SeverityError:
			errs++
		case models.SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
