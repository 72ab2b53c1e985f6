// Package frontmatter splits corpus files into their YAML header, Markdown
// body and trailing attribution, and renders them back.
package frontmatter

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoFrontMatter is returned when a file does not open with a --- line.
	ErrNoFrontMatter = errors.New("missing front matter")

	// ErrUnterminated is returned when the closing --- line is missing.
	ErrUnterminated = errors.New("unterminated front matter")
)

const delimiter = "---"

// maxAttributionLines bounds how long a trailing notice may be before it
// is treated as ordinary content.
const maxAttributionLines = 40

// Split separates the front matter block from the body. A UTF-8 BOM,
// CRLF line endings and leading blank lines are tolerated.
func Split(raw []byte) (header []byte, body string, err error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimLeft(text, "\n")

	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, " \t") != delimiter {
		return nil, "", ErrNoFrontMatter
	}
	if !found {
		return nil, "", ErrUnterminated
	}

	offset := 0
	for offset <= len(rest) {
		line := rest[offset:]
		end := strings.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if strings.TrimRight(line, " \t") == delimiter {
			header = []byte(rest[:offset])
			if end < 0 {
				return header, "", nil
			}
			return header, rest[offset+end+1:], nil
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return nil, "", ErrUnterminated
}

var thematicBreak = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)

var attributionHint = regexp.MustCompile(`(?i)attribution|human interface guidelines|developer\.apple\.com|apple inc\.|all rights reserved`)

// SplitAttribution detaches a short notice that follows the last thematic
// break of the body. The content is returned unchanged when the tail does
// not look like an attribution.
func SplitAttribution(body string) (content, attribution string) {
	lines := strings.Split(body, "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		if !thematicBreak.MatchString(lines[i]) {
			continue
		}
		// A dash line right under text is a setext heading underline.
		if i > 0 && strings.TrimSpace(lines[i-1]) != "" && strings.HasPrefix(strings.TrimSpace(lines[i]), "-") {
			return body, ""
		}
		tail := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if tail == "" || len(lines)-i-1 > maxAttributionLines || !attributionHint.MatchString(tail) {
			return body, ""
		}
		content = strings.TrimRight(strings.Join(lines[:i], "\n"), " \t\n")
		if content != "" {
			content += "\n"
		}
		return content, tail
	}
	return body, ""
}
