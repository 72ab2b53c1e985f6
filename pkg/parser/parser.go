// Package parser turns Markdown bodies into a tree of sections and blocks.
package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/higdocs/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs | blackfriday.Footnotes

type Parser struct {
	policy *bluemonday.Policy
}

// New returns a parser whose HTML output is sanitized with the UGC policy.
func New() *Parser {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &Parser{policy: policy}
}

// toHTML renders Markdown with fenced code, tables, autolinks and heading IDs.
func toHTML(body string) []byte {
	return blackfriday.Run([]byte(body), blackfriday.WithExtensions(extensions))
}

// RenderHTML returns sanitized HTML for display.
func (p *Parser) RenderHTML(body string) []byte {
	return p.policy.SanitizeBytes(toHTML(body))
}

type node struct {
	section  models.Section
	children []*node
}

// Parse splits a Markdown body into sections keyed on heading level. Blocks
// that appear before the first heading land in a level 0 section. The flat
// block list is returned alongside for callers that do not need the tree.
func (p *Parser) Parse(body string) ([]models.Section, []models.ContentBlock, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(toHTML(body)))
	if err != nil {
		return nil, nil, err
	}

	root := &node{}
	stack := []*node{root}
	var flat []models.ContentBlock

	doc.Find("h1,h2,h3,h4,h5,h6,p,li,pre,table,blockquote,img").Each(func(i int, s *goquery.Selection) {
		tag := goquery.NodeName(s)

		if level := headingLevel(tag); level > 0 {
			heading := normalizeText(s.Text())
			n := &node{section: models.Section{
				Level:   level,
				Heading: heading,
				Anchor:  s.AttrOr("id", blackfriday.SanitizedAnchorName(heading)),
			}}
			for len(stack) > 1 && stack[len(stack)-1].section.Level >= level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
			return
		}

		block, ok := extractBlock(tag, s)
		if !ok {
			return
		}
		current := stack[len(stack)-1]
		current.section.Blocks = append(current.section.Blocks, block)
		flat = append(flat, block)
	})

	var sections []models.Section
	if len(root.section.Blocks) > 0 {
		sections = append(sections, models.Section{Level: 0, Blocks: root.section.Blocks})
	}
	for _, child := range root.children {
		sections = append(sections, child.build())
	}
	return sections, flat, nil
}

func (n *node) build() models.Section {
	s := n.section
	for _, c := range n.children {
		s.Children = append(s.Children, c.build())
	}
	return s
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func extractBlock(tag string, s *goquery.Selection) (models.ContentBlock, bool) {
	switch tag {
	case "table":
		if table := extractTable(s); table != nil {
			return models.ContentBlock{Type: models.BlockTable, Table: table}, true
		}

	case "pre":
		if code := extractCodeBlock(s); code != nil {
			return models.ContentBlock{Type: models.BlockCode, Code: code}, true
		}

	case "img":
		src := s.AttrOr("src", "")
		if src != "" {
			return models.ContentBlock{Type: models.BlockImage, Image: &models.Image{Src: src, Alt: s.AttrOr("alt", "")}}, true
		}

	case "blockquote":
		if s.ParentsFiltered("blockquote").Length() > 0 {
			break
		}
		if text := normalizeText(s.Text()); text != "" {
			return models.ContentBlock{Type: models.BlockQuote, Text: text}, true
		}

	case "li":
		if s.ParentsFiltered("blockquote").Length() > 0 {
			break
		}
		// Nested lists and code are emitted as their own blocks.
		clone := s.Clone()
		clone.Find("ul,ol,pre").Remove()
		if text := normalizeText(clone.Text()); text != "" {
			return models.ContentBlock{Type: models.BlockListItem, Text: text}, true
		}

	case "p":
		if s.ParentsFiltered("li,blockquote,td,th").Length() > 0 {
			break
		}
		if text := normalizeText(s.Text()); text != "" {
			return models.ContentBlock{Type: models.BlockParagraph, Text: text}, true
		}
	}
	return models.ContentBlock{}, false
}

// Title returns the first level 1 heading in document order.
func Title(sections []models.Section) string {
	for _, s := range sections {
		if s.Level == 1 && s.Heading != "" {
			return s.Heading
		}
		if t := Title(s.Children); t != "" {
			return t
		}
	}
	return ""
}

// Stats counts sections and blocks in a tree. The level 0 preamble is not
// counted as a section.
func Stats(sections []models.Section) (sectionCount, blockCount, codeCount, imageCount int) {
	for _, s := range sections {
		if s.Level > 0 {
			sectionCount++
		}
		for _, b := range s.Blocks {
			blockCount++
			switch b.Type {
			case models.BlockCode:
				codeCount++
			case models.BlockImage:
				imageCount++
			}
		}
		sc, bc, cc, ic := Stats(s.Children)
		sectionCount += sc
		blockCount += bc
		codeCount += cc
		imageCount += ic
	}
	return sectionCount, blockCount, codeCount, imageCount
}

// normalizeText cleans up a string by trimming space and collapsing newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

func extractTable(s *goquery.Selection) *models.Table {
	var headers []string
	var rows [][]string

	s.Find("thead tr th").Each(func(i int, th *goquery.Selection) {
		headers = append(headers, normalizeText(th.Text()))
	})

	bodyRows := s.Find("tbody tr")
	if len(headers) == 0 {
		first := s.Find("tr").First()
		first.Find("th,td").Each(func(i int, cell *goquery.Selection) {
			headers = append(headers, normalizeText(cell.Text()))
		})
		bodyRows = s.Find("tr").Slice(1, goquery.ToEnd)
	}

	bodyRows.Each(func(i int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			row = append(row, normalizeText(td.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	if len(headers) == 0 && len(rows) == 0 {
		return nil
	}
	return &models.Table{Headers: headers, Rows: rows}
}

func extractCodeBlock(s *goquery.Selection) *models.Code {
	codeSel := s.Find("code")
	if codeSel.Length() == 0 {
		return nil
	}

	code := strings.TrimRight(codeSel.Text(), "\n")
	if strings.TrimSpace(code) == "" {
		return nil
	}

	lang, _ := codeSel.Attr("class")
	lang = strings.TrimPrefix(lang, "language-")

	return &models.Code{Language: lang, Content: code}
}
