package extractor

import (
	"testing"

	"github.com/dtnitsch/higdocs/models"
)

func testSections() []models.Section {
	return []models.Section{
		{Level: 1, Heading: "Menus", Blocks: []models.ContentBlock{
			{Type: models.BlockParagraph, Text: "A menu reveals options."},
		}, Children: []models.Section{
			{Level: 2, Heading: "Best practices", Blocks: []models.ContentBlock{
				{Type: models.BlockListItem, Text: "Keep menus short."},
				{Type: models.BlockParagraph, Text: "Group related items."},
			}},
			{Level: 2, Heading: "Platform considerations", Children: []models.Section{
				{Level: 3, Heading: "macOS", Blocks: []models.ContentBlock{
					{Type: models.BlockCode, Code: &models.Code{Content: "NSMenu()"}},
				}},
			}},
		}},
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		types   int
		section string
	}{
		{"", false, 0, ""},
		{"type:li|code", false, 2, ""},
		{"type:p, section:Best Practices", false, 1, "best practices"},
		{"type:heading", true, 0, ""},
		{"conf:>=0.5", true, 0, ""},
		{"section:", true, 0, ""},
		{"nonsense", true, 0, ""},
	}
	for _, tt := range tests {
		s, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if len(s.BlockTypes) != tt.types || s.Section != tt.section {
			t.Errorf("ParseStrategy(%q) = %+v", tt.in, s)
		}
	}
}

func TestFilterByType(t *testing.T) {
	s, _ := ParseStrategy("type:code")
	got := FilterSections(testSections(), s)

	if len(got) != 1 || len(got[0].Blocks) != 0 {
		t.Fatalf("FilterSections() top = %+v", got)
	}
	children := got[0].Children
	if len(children) != 1 || children[0].Heading != "Platform considerations" {
		t.Fatalf("children = %+v, want only Platform considerations", children)
	}
	if code := children[0].Children[0].Blocks[0].Code; code == nil || code.Content != "NSMenu()" {
		t.Errorf("code block missing: %+v", children[0].Children[0])
	}
}

func TestFilterBySection(t *testing.T) {
	s, _ := ParseStrategy("section:best practices,type:li")
	got := FilterSections(testSections(), s)

	if len(got) != 1 || len(got[0].Children) != 1 {
		t.Fatalf("FilterSections() = %+v", got)
	}
	bp := got[0].Children[0]
	if len(bp.Blocks) != 1 || bp.Blocks[0].Text != "Keep menus short." {
		t.Errorf("best practices blocks = %+v", bp.Blocks)
	}
}

func TestFilterEmptyStrategy(t *testing.T) {
	s, _ := ParseStrategy("")
	sections := testSections()
	if got := FilterSections(sections, s); len(got) != len(sections) {
		t.Errorf("empty strategy changed sections: %d", len(got))
	}
}
