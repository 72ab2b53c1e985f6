package corpus

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/storage"
)

// DocumentMetadata is a document without its body and sections: the
// front matter, computed metadata and validation findings.
type DocumentMetadata struct {
	DocID       int64              `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	Slug        string             `json:"slug" yaml:"slug"`
	Path        string             `json:"path" yaml:"path"`
	FrontMatter models.FrontMatter `json:"front_matter" yaml:"front_matter"`
	Extra       map[string]any     `json:"extra,omitempty" yaml:"extra,omitempty"`
	Metadata    models.DocMetadata `json:"metadata" yaml:"metadata"`
	Issues      []models.Issue     `json:"issues,omitempty" yaml:"issues,omitempty"`
	Valid       bool               `json:"valid" yaml:"valid"`
	Checksum    string             `json:"checksum" yaml:"checksum"`
	IndexedAt   time.Time          `json:"indexed_at,omitempty" yaml:"indexed_at,omitempty"`
}

// NewDocumentMetadata builds the metadata view of doc.
func NewDocumentMetadata(doc *models.Document) DocumentMetadata {
	return DocumentMetadata{
		DocID:       doc.DocID,
		Slug:        doc.Slug(),
		Path:        doc.Path,
		FrontMatter: doc.FrontMatter,
		Extra:       doc.FrontMatter.Extra,
		Metadata:    doc.Metadata,
		Issues:      doc.Issues,
		Valid:       doc.Valid,
		Checksum:    doc.Checksum,
		IndexedAt:   doc.IndexedAt,
	}
}

// WriteMetadataFile writes the metadata view of doc as YAML to name.
func WriteMetadataFile(doc *models.Document, s *storage.Storage, name string) error {
	yamlBytes, err := yaml.Marshal(NewDocumentMetadata(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := s.SaveFile(name, yamlBytes); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}
