package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dtnitsch/higdocs/models"
	"gopkg.in/yaml.v3"
)

// ordered mirrors FrontMatter with the field order used on disk.
type ordered struct {
	Title            string    `yaml:"title"`
	Platform         string    `yaml:"platform"`
	Category         string    `yaml:"category"`
	URL              string    `yaml:"url"`
	ID               string    `yaml:"id"`
	LastUpdated      time.Time `yaml:"lastUpdated,omitempty"`
	ExtractionMethod string    `yaml:"extractionMethod"`
	QualityScore     float64   `yaml:"qualityScore"`
	Confidence       float64   `yaml:"confidence"`
	ContentLength    int       `yaml:"contentLength"`
	HasCodeExamples  bool      `yaml:"hasCodeExamples"`
	HasImages        bool      `yaml:"hasImages"`
	Keywords         []string  `yaml:"keywords"`
}

// RenderHeader encodes front matter as YAML in canonical field order.
// Extra keys follow in sorted order.
func RenderHeader(fm *models.FrontMatter) ([]byte, error) {
	keywords := fm.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	var node yaml.Node
	if err := node.Encode(ordered{
		Title:            fm.Title,
		Platform:         fm.Platform,
		Category:         fm.Category,
		URL:              fm.URL,
		ID:               fm.ID,
		LastUpdated:      fm.LastUpdated.UTC(),
		ExtractionMethod: fm.ExtractionMethod,
		QualityScore:     fm.QualityScore,
		Confidence:       fm.Confidence,
		ContentLength:    fm.ContentLength,
		HasCodeExamples:  fm.HasCodeExamples,
		HasImages:        fm.HasImages,
		Keywords:         keywords,
	}); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	extraKeys := make([]string, 0, len(fm.Extra))
	for k := range fm.Extra {
		if !knownKeys[k] {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		var value yaml.Node
		if err := value.Encode(fm.Extra[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to write front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render produces a complete corpus file. Parse(Render(p)) yields p.
func Render(p *Parsed) ([]byte, error) {
	header, err := RenderHeader(&p.FrontMatter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(header)
	buf.WriteString(delimiter + "\n")

	body := strings.TrimRight(p.Body, " \t\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	if p.Attribution != "" {
		buf.WriteString("\n" + delimiter + "\n\n")
		buf.WriteString(strings.TrimSpace(p.Attribution))
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
