// Package ingest scans many pages concurrently and merges their word
// occurrence tallies into the stored counts.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/highlight"
	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/metrics"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Report summarizes an ingest run.
type Report struct {
	Pages   int      // pages fetched and scanned
	Failed  int      // pages that could not be fetched or parsed
	Matches int      // occurrences written to the stored counts
	Changed []string // words whose count grew
}

// Ingester fetches pages, highlights them against the word list and pushes
// the occurrence counts.
type Ingester struct {
	Store  *vocab.Store
	Source page.Source

	BatchSize     int
	FlushInterval time.Duration
	// OnProgress is called after each page with the number of finished pages and the total.
	OnProgress func(done, total int)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(store *vocab.Store, source page.Source) *Ingester {
	return &Ingester{
		Store:         store,
		Source:        source,
		BatchSize:     50,
		FlushInterval: 100 * time.Millisecond,
		Workers:       4, // Default worker count
	}
}

// Ingest reads the word list once and scans every URL with it. Fetch and
// parse failures are logged and counted; a failed write aborts the run.
func (ig *Ingester) Ingest(ctx context.Context, urls []string) (Report, error) {
	var report Report
	if len(urls) == 0 {
		return report, nil
	}

	words, err := ig.Store.Load(ctx)
	if err != nil {
		return report, err
	}
	if len(words) == 0 {
		logger.L().Info("word list is empty, nothing to count", zap.Int("pages", len(urls)))
		return report, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(ig.Workers, ig.Workers*2)
	} else {
		wp = NewWorkerPool(ig.Workers, ig.Workers*2)
	}

	var (
		pages, failed, done int64
		changedMu           sync.Mutex
		changed             = make(map[string]struct{})
		matches             int64
	)

	tw := NewTallyWriter(ig.Store.DB(), ig.BatchSize, ig.FlushInterval)
	tw.OnError = func(error) { cancel() }
	tw.OnFlush = func(res FlushResult) {
		atomic.AddInt64(&matches, int64(res.Matches))
		changedMu.Lock()
		for _, w := range res.Changed {
			changed[w] = struct{}{}
		}
		changedMu.Unlock()
	}

	wp.Start(ctx)

	total := len(urls)
	var submitErr error
Loop:
	for _, u := range urls {
		rawURL := u
		job := func(ctx context.Context) error {
			defer func() {
				n := atomic.AddInt64(&done, 1)
				if ig.OnProgress != nil {
					ig.OnProgress(int(n), total)
				}
			}()

			pt, err := ig.scan(ctx, rawURL, words)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				if !errors.Is(err, context.Canceled) {
					logger.L().Warn("page skipped", zap.String("url", rawURL), zap.Error(err))
				}
				return err
			}
			atomic.AddInt64(&pages, 1)
			return tw.Submit(pt)
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrPoolClosed) {
				break Loop
			}
			submitErr = err
			break Loop
		}
	}

	// Drain the queue, then flush what the workers produced.
	wp.Close()
	writeErr := tw.Close()

	report.Pages = int(atomic.LoadInt64(&pages))
	report.Failed = int(atomic.LoadInt64(&failed))
	report.Matches = int(atomic.LoadInt64(&matches))
	for w := range changed {
		report.Changed = append(report.Changed, w)
	}
	sort.Strings(report.Changed)

	switch {
	case submitErr != nil:
		return report, submitErr
	case writeErr != nil:
		return report, writeErr
	case ctx.Err() != nil:
		return report, ctx.Err()
	}
	return report, nil
}

// scan fetches one page and highlights a private copy of it.
func (ig *Ingester) scan(ctx context.Context, rawURL string, words vocab.Vocab) (PageTally, error) {
	fetched, err := ig.Source.Fetch(ctx, rawURL)
	if err != nil {
		return PageTally{}, err
	}
	hl, err := highlight.Parse(bytes.NewReader(fetched.Body), words, highlight.Options{})
	if err != nil {
		return PageTally{}, err
	}
	res, err := hl.Scan(ctx, false)
	if err != nil {
		return PageTally{}, err
	}
	metrics.RecordScan(metrics.ScanIngest, res.Matches)

	meta, err := page.ExtractMeta(fetched.Body, fetched.URL)
	if err != nil {
		logger.L().Debug("readability failed", zap.String("url", rawURL), zap.Error(err))
	}
	return PageTally{URL: fetched.URL.String(), Meta: meta, Tally: res.Tally, Matches: res.Matches}, nil
}
