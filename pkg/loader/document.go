package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/analytics"
	"github.com/dtnitsch/higdocs/pkg/detector"
	"github.com/dtnitsch/higdocs/pkg/extractors"
	"github.com/dtnitsch/higdocs/pkg/frontmatter"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
	"github.com/dtnitsch/higdocs/pkg/parser"
	"github.com/dtnitsch/higdocs/pkg/validate"
)

// TopKeywordCount is the number of computed keywords kept per document.
const TopKeywordCount = 25

// Failure types.
const (
	ErrorTypeRead        = "read_error"
	ErrorTypeFrontMatter = "frontmatter_error"
	ErrorTypeParse       = "parse_error"
	ErrorTypeDuplicate   = "duplicate_id"
)

// LoadError describes why a single file could not be loaded.
type LoadError struct {
	Type string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Type, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type builder struct {
	parser         *parser.Parser
	analytics      *analytics.Analytics
	detectLanguage bool
}

func newBuilder(detectLanguage bool) *builder {
	return &builder{parser: parser.New(), analytics: &analytics.Analytics{}, detectLanguage: detectLanguage}
}

// LoadFile loads one document. rel is relative to root and becomes the
// document path.
func LoadFile(root, rel string) (*models.Document, error) {
	return newBuilder(true).load(root, rel)
}

// LoadFileWith is LoadFile honoring the analysis switches in opts.
func LoadFileWith(root, rel string, opts Options) (*models.Document, error) {
	return newBuilder(!opts.SkipLanguage).load(root, rel)
}

func (b *builder) load(root, rel string) (*models.Document, error) {
	rel = filepath.ToSlash(rel)
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &LoadError{Type: ErrorTypeRead, Path: rel, Err: err}
	}
	return b.build(rel, raw)
}

// Build turns raw file bytes into a document without touching the filesystem.
func Build(rel string, raw []byte) (*models.Document, error) {
	return newBuilder(true).build(filepath.ToSlash(rel), raw)
}

func (b *builder) build(rel string, raw []byte) (*models.Document, error) {
	parsed, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, &LoadError{Type: ErrorTypeFrontMatter, Path: rel, Err: err}
	}

	sum := sha256.Sum256(raw)
	doc := &models.Document{
		Path:        rel,
		FrontMatter: parsed.FrontMatter,
		Body:        parsed.Body,
		Attribution: parsed.Attribution,
		Checksum:    hex.EncodeToString(sum[:]),
	}

	derived := deriveFromPath(&doc.FrontMatter, rel)

	sections, _, err := b.parser.Parse(doc.Body)
	if err != nil {
		return nil, &LoadError{Type: ErrorTypeParse, Path: rel, Err: err}
	}
	doc.Sections = sections

	if doc.FrontMatter.Title == "" {
		doc.FrontMatter.Title = parser.Title(sections)
	}

	doc.Issues = validate.Document(&doc.FrontMatter, doc.Body)
	if derived {
		doc.Issues = append(doc.Issues, models.Issue{
			Field:    "id",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("id derived from file name as %q", doc.FrontMatter.ID),
		})
	}
	doc.Valid = !validate.HasErrors(doc.Issues)

	b.analyze(doc)
	return doc, nil
}

// analyze fills the computed metadata.
func (b *builder) analyze(doc *models.Document) {
	text := doc.PlainText()
	m := &doc.Metadata

	m.WordCount = b.analytics.WordCount(text)
	m.ReadMinutes = analytics.ReadMinutes(m.WordCount)
	m.SectionCount, m.BlockCount, m.CodeBlockCount, m.ImageCount = parser.Stats(doc.Sections)
	m.Platforms = detector.Platforms(&doc.FrontMatter, doc.Body)
	m.QualityBand = detector.QualityBand(doc.FrontMatter.QualityScore)
	m.Guidance = extractors.ExtractGuidance(doc.Sections)

	doc.WordCounts = mapreduce.Map(text, b.analytics)
	m.TopKeywords = mapreduce.TopKeywords(doc.WordCounts, 10)

	if b.detectLanguage {
		m.Language, m.LanguageConfidence = detector.Language(text)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// deriveFromPath fills platform, category and id from the file location
// when the front matter leaves them empty. Layout is
// <platform>/<category>/<file>.md; a single directory is a category.
// It reports whether the id was derived.
func deriveFromPath(fm *models.FrontMatter, rel string) bool {
	parts := strings.Split(rel, "/")
	dirs := parts[:len(parts)-1]

	switch {
	case len(dirs) >= 2:
		if fm.Platform == "" {
			fm.Platform = dirs[len(dirs)-2]
		}
		if fm.Category == "" {
			fm.Category = dirs[len(dirs)-1]
		}
	case len(dirs) == 1:
		if fm.Category == "" {
			fm.Category = dirs[0]
		}
	}

	if fm.ID != "" {
		return false
	}
	name := parts[len(parts)-1]
	fm.ID = Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
	return true
}
