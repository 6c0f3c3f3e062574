package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/vocab"
	_ "github.com/mattn/go-sqlite3"
)

// memorySource serves the same generated article for every URL, so the
// benchmark measures scanning and writing rather than the network.
type memorySource struct{ body []byte }

func (m memorySource) Fetch(ctx context.Context, rawURL string) (*page.Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &page.Fetched{URL: u, ContentType: "text/html; charset=utf-8", Body: m.body}, nil
}

func generateBenchmarkArticle(paragraphs int) []byte {
	var b strings.Builder
	b.WriteString("<html><head><title>Bench</title></head><body><article>")
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d: the quick brown fox jumps over the lazy dog while an apple falls.</p>", i)
	}
	b.WriteString("</article></body></html>")
	return []byte(b.String())
}

func benchmarkURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://bench.local/page/%d", i)
	}
	return urls
}

func setupBenchmarkStore(b *testing.B) *vocab.Store {
	conn := setupDB(b)
	b.Cleanup(func() { conn.Close() })
	store := vocab.NewStore(conn)
	if err := store.Save(context.Background(), vocab.Vocab{
		"fox": {Translation: "狐狸"}, "apple": {Translation: "苹果"}, "lazy": {Translation: "懒惰的"},
	}); err != nil {
		b.Fatalf("seed failed: %v", err)
	}
	return store
}

func BenchmarkIngest(b *testing.B) {
	src := memorySource{body: generateBenchmarkArticle(200)}
	urls := benchmarkURLs(50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store := setupBenchmarkStore(b)
		ingester := NewIngester(store, src)
		ingester.Workers = 4
		ingester.BatchSize = 10
		b.StartTimer()

		if _, err := ingester.Ingest(context.Background(), urls); err != nil {
			b.Fatalf("Ingest failed: %v", err)
		}
	}
}

func BenchmarkIngestConcurrencyScaling(b *testing.B) {
	// Compare different worker counts.
	// Note: On small datasets or in-memory DBs, overhead of spawning workers might outweigh benefits.
	counts := []int{1, 2, 4, 8}
	src := memorySource{body: generateBenchmarkArticle(200)}
	urls := benchmarkURLs(50)

	for _, workers := range counts {
		b.Run(fmt.Sprintf("Workers_%d", workers), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store := setupBenchmarkStore(b)
				ingester := NewIngester(store, src)
				ingester.Workers = workers
				ingester.BatchSize = 10 // Keep batch size constant
				b.StartTimer()

				if _, err := ingester.Ingest(context.Background(), urls); err != nil {
					b.Fatalf("Ingest failed: %v", err)
				}
			}
		})
	}
}
