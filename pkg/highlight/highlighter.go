// Package highlight scans HTML documents for learned words, wraps them in
// highlight spans and drives the shared hover tooltip.
package highlight

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/dom"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/vocab"
)

const (
	// HighlightClass marks spans inserted around known words.
	HighlightClass = "vocab-highlight"
	// WordAttr carries the lowercase dictionary key on each span.
	WordAttr = "data-vocab-word"
	// TooltipID is the id of the single tooltip container under <body>.
	TooltipID = "vocab-tooltip-container"
)

var (
	skipParent  = cascadia.MustCompile("script, style, textarea, input, noscript, select")
	highlighted = cascadia.MustCompile("." + HighlightClass)
)

// CountStore persists scan tallies. vocab.Store implements it.
type CountStore interface {
	AddCounts(ctx context.Context, tally map[string]int) (vocab.Vocab, []string, error)
}

// Options configures a Highlighter.
type Options struct {
	// Store receives tallies from scans that push counts. Nil disables pushing.
	Store CountStore
}

// ScanResult summarizes one highlight pass.
type ScanResult struct {
	Matches int            // spans inserted by this pass
	Tally   map[string]int // occurrences per word in this pass
	Pushed  []string       // words whose stored count was updated
}

// Highlighter owns one document, its copy of the dictionary, the span to
// word association table and the tooltip element.
type Highlighter struct {
	mu      sync.Mutex
	doc     *html.Node
	words   vocab.Vocab
	spans   map[*html.Node]string
	tooltip *html.Node
	store   CountStore
}

// New creates a Highlighter over doc. The dictionary is copied.
func New(doc *html.Node, words vocab.Vocab, opts Options) *Highlighter {
	if words == nil {
		words = vocab.Vocab{}
	}
	return &Highlighter{
		doc:   doc,
		words: words.Clone(),
		spans: make(map[*html.Node]string),
		store: opts.Store,
	}
}

// Parse reads an HTML document and creates a Highlighter over it.
func Parse(r io.Reader, words vocab.Vocab, opts Options) (*Highlighter, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(doc, words, opts), nil
}

// Document returns the underlying document. Callers must not mutate it
// while scans may run.
func (h *Highlighter) Document() *html.Node { return h.doc }

// Vocab returns a copy of the in-memory dictionary.
func (h *Highlighter) Vocab() vocab.Vocab {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.words.Clone()
}

// SetVocab replaces the in-memory dictionary.
func (h *Highlighter) SetVocab(words vocab.Vocab) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if words == nil {
		words = vocab.Vocab{}
	}
	h.words = words.Clone()
}

// Merge adds or replaces a single word in the in-memory dictionary.
func (h *Highlighter) Merge(word string, e vocab.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.words[word] = e
}

// Lookup returns the word and current entry bound to a highlight span.
func (h *Highlighter) Lookup(span *html.Node) (string, vocab.Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lookup(span)
}

func (h *Highlighter) lookup(span *html.Node) (string, vocab.Entry, bool) {
	word, ok := h.spans[span]
	if !ok {
		return "", vocab.Entry{}, false
	}
	e, ok := h.words[word]
	return word, e, ok
}

// boundSpans returns the highlight spans bound so far, in document order.
func (h *Highlighter) boundSpans() []*html.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*html.Node
	for _, n := range dom.QuerySelectorAll(h.doc, "span."+HighlightClass) {
		if _, ok := h.spans[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Scan runs one highlight pass over the text under <body>. With pushCounts
// set and at least one match, the tally is added to the stored counts and
// the in-memory counts are refreshed from the result.
func (h *Highlighter) Scan(ctx context.Context, pushCounts bool) (ScanResult, error) {
	h.mu.Lock()
	res := h.scanLocked()
	h.mu.Unlock()

	if !pushCounts || len(res.Tally) == 0 || h.store == nil {
		return res, nil
	}

	updated, changed, err := h.store.AddCounts(ctx, res.Tally)
	if err != nil {
		return res, fmt.Errorf("push counts: %w", err)
	}
	res.Pushed = changed

	h.mu.Lock()
	for _, w := range changed {
		if e, ok := h.words[w]; ok {
			e.Count = updated[w].Count
			h.words[w] = e
		}
	}
	h.mu.Unlock()

	logger.L().Debug("word counts updated", zap.Any("tally", res.Tally))
	return res, nil
}

func (h *Highlighter) scanLocked() ScanResult {
	res := ScanResult{Tally: make(map[string]int)}
	body := dom.QuerySelector(h.doc, "body")
	if body == nil || len(h.words) == 0 {
		return res
	}

	var nodes []*html.Node
	h.collect(body, &nodes)

	for _, n := range nodes {
		if strings.TrimSpace(n.Data) == "" {
			continue
		}
		res.Matches += h.wrap(n, res.Tally)
	}
	return res
}

// collect gathers the text nodes eligible for highlighting. The tooltip
// subtree is never descended into.
func (h *Highlighter) collect(n *html.Node, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if accept(c) {
				*out = append(*out, c)
			}
		case html.ElementNode:
			if c == h.tooltip || dom.GetAttribute(c, "id") == TooltipID {
				continue
			}
			h.collect(c, out)
		}
	}
}

func accept(n *html.Node) bool {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode {
		return true
	}
	return !highlighted.Match(p) && !skipParent.Match(p)
}

// wrap replaces n with plain text and highlight spans when it contains at
// least one known word. It returns the number of spans inserted.
func (h *Highlighter) wrap(n *html.Node, tally map[string]int) int {
	tokens := Split(n.Data)

	matches := 0
	for _, tok := range tokens {
		if tok.IsWord {
			if _, ok := h.words[strings.ToLower(tok.Surface)]; ok {
				matches++
			}
		}
	}
	if matches == 0 {
		return 0
	}

	parent := n.Parent
	for _, tok := range tokens {
		key := strings.ToLower(tok.Surface)
		if _, ok := h.words[key]; !tok.IsWord || !ok {
			parent.InsertBefore(dom.CreateTextNode(tok.Surface), n)
			continue
		}
		span := dom.CreateElement("span")
		dom.SetAttribute(span, "class", HighlightClass)
		dom.SetAttribute(span, WordAttr, key)
		span.AppendChild(dom.CreateTextNode(tok.Surface))
		parent.InsertBefore(span, n)

		h.spans[span] = key
		tally[key]++
	}
	parent.RemoveChild(n)
	return matches
}

// Words returns the keys with at least one bound span, sorted.
func (h *Highlighter) Words() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[string]struct{})
	for _, w := range h.spans {
		seen[w] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Render writes the document as HTML.
func (h *Highlighter) Render(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return html.Render(w, h.doc)
}
