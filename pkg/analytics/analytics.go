// Package analytics computes word statistics over document text.
package analytics

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// WordsPerMinute is the reading speed used for read time estimates.
const WordsPerMinute = 200

type Analytics struct{}

// English function words. UI vocabulary such as "button", "menu" or
// "search" is deliberately absent: in this corpus those are topics.
const englishStopwords = `
a about above across after afterwards again against all almost alone along already also
although always am among amongst an and another any anyhow anyone anything anyway anywhere
are aren't around as at
be became because become becomes becoming been before beforehand behind being below beside
besides between beyond both but by
can can't cannot could couldn't
did didn't do does doesn't doing don't done down during
each either else elsewhere enough especially etc even ever every everyone everything everywhere
few for former formerly from further
had hadn't has hasn't have haven't having he he'd he'll he's hence her here hereafter hereby
herein here's hereupon hers herself him himself his how however
i i'd i'll i'm i've if in indeed into is isn't it it's its itself it'll
just
last latter least less let let's like likely
made make many may maybe me meanwhile might mine more moreover most mostly much must mustn't
my myself
neither never nevertheless next no nobody none noone nor not nothing now nowhere
of off often on once one only onto or other others otherwise our ours ourselves out over own
per perhaps please put
rather re same see seem seemed seeming seems several she she'd she'll she's should shouldn't
since so some somehow someone something sometime sometimes somewhere still such
than that that's that'll the their theirs them themselves then thence there thereafter thereby
therefore therein there's thereupon these they they'd they'll they're they've this those
through throughout thru thus to together too toward towards
under until up upon us
very via
was wasn't we we'd we'll we're we've well were weren't what whatever what's when when's whence
whenever where whereafter whereas whereby wherein where's whereupon wherever whether which while
whither who who'd whoever who'll who's whose why will with within without won't would wouldn't
yet you you'd you'll you're you've your yours yourself yourselves
`

// Words that appear on nearly every guideline page and carry no topic.
const corpusStopwords = `
apple developer documentation guidelines hig people app apps use using used uses help helps
consider generally typically including example examples
`

var stopwords = buildStopwords(englishStopwords, corpusStopwords)

func buildStopwords(lists ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range strings.Fields(list) {
			set[w] = struct{}{}
		}
	}
	return set
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Normalize applies NFKC, case folding and apostrophe unification.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = apostrophes.Replace(text)
	return cases.Fold().String(text)
}

// IsStopword checks if a word should be ignored in frequency analysis.
func IsStopword(word string) bool {
	_, exists := stopwords[Normalize(word)]
	return exists
}

// Tokens splits normalized text into words. Apostrophes and hyphens inside
// a word are kept; surrounding punctuation is dropped. Tokens without a
// letter are skipped.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f == "" || strings.IndexFunc(f, unicode.IsLetter) < 0 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// WordCount returns the number of word tokens in text, stopwords included.
func (a *Analytics) WordCount(text string) int {
	return len(Tokens(text))
}

// WordFrequency counts non-stopword tokens.
func (a *Analytics) WordFrequency(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, word := range Tokens(text) {
		if _, skip := stopwords[word]; skip || len([]rune(word)) < 2 {
			continue
		}
		frequencies[word]++
	}
	return frequencies
}

// WordCount is a word and its frequency.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Rank orders counts by frequency, then alphabetically, and keeps the first n.
// A non-positive n keeps everything.
func Rank(frequencies map[string]int, n int) []WordCount {
	counts := make([]WordCount, 0, len(frequencies))
	for k, v := range frequencies {
		counts = append(counts, WordCount{k, v})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// TopNWords returns the n most frequent non-stopwords in text.
func (a *Analytics) TopNWords(text string, n int) []string {
	ranked := Rank(a.WordFrequency(text), n)
	topN := make([]string, len(ranked))
	for i, wc := range ranked {
		topN[i] = wc.Word
	}
	return topN
}

// ReadMinutes estimates reading time for a word count.
func ReadMinutes(words int) float64 {
	return float64(words) / WordsPerMinute
}
