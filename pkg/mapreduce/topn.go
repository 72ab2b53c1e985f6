package mapreduce

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/higdocs/pkg/analytics"
)

// isValidKeyword filters malformed tokens: trailing separators and
// unbalanced brackets or quotes.
func isValidKeyword(word string) bool {
	if word == "" || strings.HasSuffix(word, ":") || strings.HasSuffix(word, "=") {
		return false
	}

	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}} {
		if strings.Count(word, pair[0]) != strings.Count(word, pair[1]) {
			return false
		}
	}

	return strings.Count(word, "\"")%2 == 0
}

// Ranked returns the top n valid keywords, count descending then word ascending.
func Ranked(wordCounts map[string]int, n int) []analytics.WordCount {
	filtered := make(map[string]int, len(wordCounts))
	for k, v := range wordCounts {
		if isValidKeyword(k) {
			filtered[k] = v
		}
	}
	return analytics.Rank(filtered, n)
}

// TopKeywords returns the top N keywords formatted as "word:count".
func TopKeywords(wordCounts map[string]int, n int) []string {
	ranked := Ranked(wordCounts, n)
	keywords := make([]string, len(ranked))
	for i, wc := range ranked {
		keywords[i] = fmt.Sprintf("%s:%d", wc.Word, wc.Count)
	}
	return keywords
}

// WriteTopKeywords writes the top N keywords as a numbered list.
func WriteTopKeywords(w io.Writer, wordCounts map[string]int, n int) error {
	for i, wc := range Ranked(wordCounts, n) {
		if _, err := fmt.Fprintf(w, "%d. %s: %d\n", i+1, wc.Word, wc.Count); err != nil {
			return err
		}
	}
	return nil
}
