package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/japaniel/wordlens/pkg/db"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// PageTally is the outcome of scanning one page.
type PageTally struct {
	URL     string
	Meta    page.Meta
	Tally   map[string]int
	Matches int
}

// FlushResult describes one committed batch.
type FlushResult struct {
	Pages   int
	Matches int
	Changed []string
}

// TallyWriter buffers page tallies and flushes them in batches. A batch is
// one transaction that merges every tally into the stored counts and records
// each page as a source.
type TallyWriter struct {
	mu          sync.Mutex
	buf         []PageTally
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan []PageTally
	db       *sql.DB
	OnError  func(error)
	OnFlush  func(FlushResult)

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewTallyWriter creates a new TallyWriter.
// db: the database holding the word list.
// bufferSize: flush when this many pages are buffered.
// flushInterval: flush after this duration (0 to disable).
func NewTallyWriter(db *sql.DB, bufferSize int, flushInterval time.Duration) *TallyWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	tw := &TallyWriter{
		buf:      make([]PageTally, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []PageTally, 2), // Buffer a couple of batches
		db:       db,
	}

	tw.wg.Add(1)
	go tw.committer()

	if flushInterval > 0 {
		tw.flushTicker = time.NewTicker(flushInterval)
		tw.wg.Add(1)
		go tw.loop()
	}
	return tw
}

// Submit enqueues a page tally.
func (tw *TallyWriter) Submit(p PageTally) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return ErrWriterClosed
	}
	tw.buf = append(tw.buf, p)
	if len(tw.buf) >= tw.cap {
		tw.flushLocked()
	}
	return nil
}

// flushLocked assumes tw.mu is held. A stuck committer blocks Submit, which
// is the backpressure the workers see.
func (tw *TallyWriter) flushLocked() {
	if len(tw.buf) == 0 {
		return
	}
	batch := tw.buf
	tw.buf = make([]PageTally, 0, tw.cap)

	select {
	case tw.commitCh <- batch:
	case <-tw.ctx.Done():
		tw.fail(fmt.Errorf("tally writer: dropping batch of %d pages due to context cancellation", len(batch)))
	}
}

func (tw *TallyWriter) fail(err error) {
	tw.errMu.Lock()
	if tw.lastErr == nil {
		tw.lastErr = err
	}
	tw.errMu.Unlock()
	if tw.OnError != nil {
		tw.OnError(err)
	}
}

func (tw *TallyWriter) committer() {
	defer tw.wg.Done()
	for batch := range tw.commitCh {
		res, err := tw.executeBatch(batch)
		if err != nil {
			tw.fail(err)
			continue
		}
		if tw.OnFlush != nil {
			tw.OnFlush(res)
		}
	}
}

// Merge adds up the tallies of a batch.
func Merge(batch []PageTally) map[string]int {
	merged := make(map[string]int)
	for _, p := range batch {
		for w, n := range p.Tally {
			merged[w] += n
		}
	}
	return merged
}

func (tw *TallyWriter) executeBatch(batch []PageTally) (FlushResult, error) {
	res := FlushResult{Pages: len(batch)}
	for _, p := range batch {
		res.Matches += p.Matches
	}

	// Flush with a background context so closing the writer does not
	// abort a batch half way.
	tx, err := tw.db.BeginTx(context.Background(), nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	_, changed, err := vocab.ApplyCounts(tx, Merge(batch))
	if err != nil {
		return res, err
	}
	res.Changed = changed

	for _, p := range batch {
		if _, err := db.RecordSourceVisit(tx, p.URL, p.Meta.Title, p.Meta.Byline, p.Meta.SiteName, p.Matches); err != nil {
			return res, fmt.Errorf("failed to record source %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit batch (%d pages): %w", len(batch), err)
	}
	return res, nil
}

func (tw *TallyWriter) loop() {
	defer tw.wg.Done()
	for {
		select {
		case <-tw.ctx.Done():
			return
		case <-tw.flushTicker.C:
			tw.mu.Lock()
			if len(tw.buf) > 0 {
				tw.flushLocked()
			}
			tw.mu.Unlock()
		}
	}
}

// Close stops accepting submissions, flushes what is buffered and waits for
// pending batches. It returns the first error any batch produced.
func (tw *TallyWriter) Close() error {
	tw.mu.Lock()
	if tw.closed {
		tw.mu.Unlock()
		return ErrWriterClosed
	}
	tw.closed = true
	if tw.flushTicker != nil {
		tw.flushTicker.Stop()
	}
	if len(tw.buf) > 0 {
		tw.flushLocked()
	}
	tw.mu.Unlock()

	tw.cancel()        // Stop ticker loop
	close(tw.commitCh) // Stop committer loop
	tw.wg.Wait()

	tw.errMu.Lock()
	defer tw.errMu.Unlock()
	return tw.lastErr
}

// ErrWriterClosed is returned when submitting to, or closing, a closed writer.
var ErrWriterClosed = &WriterError{"tally writer closed"}

// WriterError is the typed error of TallyWriter operations.
type WriterError struct{ msg string }

func (e *WriterError) Error() string { return e.msg }
