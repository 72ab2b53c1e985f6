// Package mapreduce aggregates per-document word counts into corpus-wide keyword rankings.
package mapreduce

import (
	"context"
	"sync"

	"github.com/dtnitsch/higdocs/pkg/analytics"
)

// Map generates a word frequency map for a single document's content.
func Map(content string, a *analytics.Analytics) map[string]int {
	return a.WordFrequency(content)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)
	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}
	return finalResults
}

// MapAll runs Map over texts on up to workers goroutines and reduces the
// results. It stops early when ctx is cancelled.
func MapAll(ctx context.Context, texts []string, workers int) (map[string]int, error) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan map[string]int, len(texts))
	a := &analytics.Analytics{}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for text := range jobs {
				results <- Map(text, a)
			}
		}()
	}

	var err error
feed:
	for _, text := range texts {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- text:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err != nil {
		return nil, err
	}

	maps := make([]map[string]int, 0, len(texts))
	for m := range results {
		maps = append(maps, m)
	}
	return Reduce(maps), nil
}
