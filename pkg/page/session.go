package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/db"
	"github.com/japaniel/wordlens/pkg/highlight"
	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/metrics"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// Session is one loaded page, the browser tab of the original extension.
type Session struct {
	ID  string
	URL string

	source Source
	store  *vocab.Store

	mu       sync.Mutex
	hl       *highlight.Highlighter
	meta     Meta
	lastScan highlight.ScanResult
	loadedAt time.Time
}

// NewSession creates an unloaded session for rawURL.
func NewSession(id, rawURL string, source Source, store *vocab.Store) *Session {
	return &Session{ID: id, URL: rawURL, source: source, store: store}
}

// Load fetches the page, reads the dictionary once and highlights it. When
// the dictionary is not empty the scan also pushes occurrence counts.
func (s *Session) Load(ctx context.Context) error {
	page, err := s.source.Fetch(ctx, s.URL)
	if err != nil {
		return err
	}

	hl, err := highlight.Parse(bytes.NewReader(page.Body), nil, highlight.Options{Store: s.store})
	if err != nil {
		return err
	}
	hl.EnsureTooltip()

	meta, err := ExtractMeta(page.Body, page.URL)
	if err != nil {
		logger.L().Warn("readability failed", zap.String("url", s.URL), zap.Error(err))
	}

	words, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load word list: %w", err)
	}
	hl.SetVocab(words)

	var res highlight.ScanResult
	if len(words) > 0 {
		res, err = hl.Scan(ctx, true)
		if err != nil {
			return err
		}
		metrics.RecordScan(metrics.ScanLoad, res.Matches)
	}

	if _, err := db.RecordSourceVisit(s.store.DB(), page.URL.String(), meta.Title, meta.Byline, meta.SiteName, res.Matches); err != nil {
		logger.L().Warn("failed to record source", zap.String("url", s.URL), zap.Error(err))
	}

	s.mu.Lock()
	s.hl = hl
	s.meta = meta
	s.lastScan = res
	s.loadedAt = time.Now()
	s.mu.Unlock()

	logger.L().Info("page loaded",
		zap.String("tab", s.ID),
		zap.String("url", s.URL),
		zap.String("title", meta.Title),
		zap.Int("matches", res.Matches))
	return nil
}

// HandleMessage applies a cross-context message to the page.
func (s *Session) HandleMessage(ctx context.Context, msg messaging.Message) error {
	switch m := msg.(type) {
	case messaging.UpdateHighlight:
		hl := s.highlighter()
		if hl == nil {
			return fmt.Errorf("tab %s is not loaded", s.ID)
		}
		hl.Merge(m.NewWord, m.Data)
		res, err := hl.Scan(ctx, false)
		if err != nil {
			return err
		}
		metrics.RecordScan(metrics.ScanUpdate, res.Matches)
		s.mu.Lock()
		s.lastScan = res
		s.mu.Unlock()
		logger.L().Debug("highlighted new word",
			zap.String("tab", s.ID), zap.String("word", m.NewWord), zap.Int("matches", res.Matches))
		return nil
	case messaging.RefreshHighlight:
		return s.Load(ctx)
	default:
		return fmt.Errorf("unsupported message %q", msg.Action())
	}
}

// Render writes the highlighted page with the browser assets injected.
func (s *Session) Render(w io.Writer, opts highlight.InjectOptions) error {
	hl := s.highlighter()
	if hl == nil {
		return fmt.Errorf("tab %s is not loaded", s.ID)
	}
	if err := hl.Inject(opts); err != nil {
		return err
	}
	return hl.Render(w)
}

// Highlighter returns the current page state, nil before Load.
func (s *Session) Highlighter() *highlight.Highlighter { return s.highlighter() }

func (s *Session) highlighter() *highlight.Highlighter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hl
}

// Meta returns the metadata extracted at the last load.
func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// LastScan returns the result of the most recent highlight pass.
func (s *Session) LastScan() highlight.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}
