package highlight

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-shiori/dom"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordlens/pkg/db"
	"github.com/japaniel/wordlens/pkg/vocab"
)

const page = `<!DOCTYPE html><html><head><title>Fruit</title>
<style>.apple { color: red }</style></head><body>
<h1>Apple pie</h1>
<p>An apple a day. Apples are not apple-like, but APPLE is.</p>
<script>var apple = 1;</script>
<textarea>apple</textarea>
<noscript>apple</noscript>
<select>apple</select>
<p>   </p>
<p>Nothing to see here.</p>
</body></html>`

func testVocab() vocab.Vocab {
	return vocab.Vocab{
		"apple": {Translation: "苹果", PartOfSpeech: "noun", Count: 2, AddedAt: time.Unix(0, 0).UTC()},
		"pie":   {Translation: "馅饼", Count: 0},
	}
}

func parse(t *testing.T, src string, words vocab.Vocab, opts Options) *Highlighter {
	t.Helper()
	h, err := Parse(strings.NewReader(src), words, opts)
	require.NoError(t, err)
	return h
}

func render(t *testing.T, h *Highlighter) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf))
	return buf.String()
}

type fakeStore struct {
	calls  []map[string]int
	stored vocab.Vocab
	err    error
}

func (f *fakeStore) AddCounts(ctx context.Context, tally map[string]int) (vocab.Vocab, []string, error) {
	f.calls = append(f.calls, tally)
	if f.err != nil {
		return nil, nil, f.err
	}
	changed := f.stored.AddCounts(tally)
	return f.stored.Clone(), changed, nil
}

func TestScanWrapsKnownWords(t *testing.T) {
	h := parse(t, page, testVocab(), Options{})

	res, err := h.Scan(context.Background(), false)
	require.NoError(t, err)

	// Apple, pie, apple, apple (from apple-like), APPLE.
	assert.Equal(t, 5, res.Matches)
	assert.Equal(t, map[string]int{"apple": 4, "pie": 1}, res.Tally)

	out := render(t, h)
	assert.Contains(t, out, `<span class="vocab-highlight" data-vocab-word="apple">Apple</span> <span class="vocab-highlight" data-vocab-word="pie">pie</span>`)
	assert.Contains(t, out, `<span class="vocab-highlight" data-vocab-word="apple">APPLE</span> is.`)
	assert.Contains(t, out, `Apples are`, "Apples is a different word")
	assert.Contains(t, out, `<script>var apple = 1;</script>`)
	assert.Contains(t, out, `<textarea>apple</textarea>`)
	assert.Contains(t, out, `<select>apple</select>`)
	assert.Contains(t, out, `<style>.apple { color: red }</style>`)

	spans := h.boundSpans()
	require.Len(t, spans, 5)
	word, entry, ok := h.Lookup(spans[0])
	require.True(t, ok)
	assert.Equal(t, "apple", word)
	assert.Equal(t, "苹果", entry.Translation)
	assert.Equal(t, []string{"apple", "pie"}, h.Words())
}

func TestScanIsIdempotent(t *testing.T) {
	h := parse(t, page, testVocab(), Options{})

	_, err := h.Scan(context.Background(), false)
	require.NoError(t, err)
	first := render(t, h)

	res, err := h.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, res.Matches)
	assert.Empty(t, res.Tally)
	assert.Equal(t, first, render(t, h))
	assert.Len(t, h.boundSpans(), 5)
}

func TestScanLeavesUnmatchedNodes(t *testing.T) {
	h := parse(t, page, testVocab(), Options{})
	p := dom.QuerySelectorAll(h.Document(), "p")[2]
	before := p.FirstChild

	_, err := h.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, before, p.FirstChild, "text node without matches must not be replaced")
}

func TestScanEmptyVocab(t *testing.T) {
	store := &fakeStore{stored: vocab.Vocab{}}
	h := parse(t, page, nil, Options{Store: store})

	res, err := h.Scan(context.Background(), true)
	require.NoError(t, err)
	assert.Zero(t, res.Matches)
	assert.Empty(t, store.calls)
}

func TestScanPushesCounts(t *testing.T) {
	store := &fakeStore{stored: testVocab()}
	h := parse(t, page, testVocab(), Options{Store: store})

	res, err := h.Scan(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"apple", "pie"}, res.Pushed)

	mem := h.Vocab()
	assert.Equal(t, 6, mem["apple"].Count)
	assert.Equal(t, 1, mem["pie"].Count)
}

func TestScanWithoutPushLeavesStore(t *testing.T) {
	store := &fakeStore{stored: testVocab()}
	h := parse(t, page, testVocab(), Options{Store: store})

	_, err := h.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, store.calls)
	assert.Equal(t, 2, h.Vocab()["apple"].Count)
}

func TestScanPushError(t *testing.T) {
	store := &fakeStore{stored: testVocab(), err: errors.New("disk full")}
	h := parse(t, page, testVocab(), Options{Store: store})

	res, err := h.Scan(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, 5, res.Matches, "highlighting happens even when the push fails")
	assert.Equal(t, 2, h.Vocab()["apple"].Count)
}

func TestMergeThenScanHighlightsNewWord(t *testing.T) {
	h := parse(t, page, testVocab(), Options{})
	_, err := h.Scan(context.Background(), false)
	require.NoError(t, err)

	h.Merge("day", vocab.Entry{Translation: "天"})
	res, err := h.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"day": 1}, res.Tally)
	assert.Contains(t, render(t, h), `<span class="vocab-highlight" data-vocab-word="day">day</span>`)
}

func TestSetVocabCopies(t *testing.T) {
	words := testVocab()
	h := New(nil, words, Options{})
	words["extra"] = vocab.Entry{}
	assert.NotContains(t, h.Vocab(), "extra")

	h.SetVocab(vocab.Vocab{"x": {}})
	assert.Len(t, h.Vocab(), 1)
}

func setupStore(t *testing.T) *vocab.Store {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))
	t.Cleanup(func() { conn.Close() })
	return vocab.NewStore(conn)
}

func TestCountsAccumulateAcrossLoads(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	require.NoError(t, store.Save(ctx, vocab.Vocab{"apple": {Translation: "苹果", PartOfSpeech: "noun"}}))

	const src = `<html><body><p>apple Apple</p><div>one more apple</div></body></html>`
	for load := 1; load <= 2; load++ {
		words, err := store.Load(ctx)
		require.NoError(t, err)
		h := parse(t, src, words, Options{Store: store})
		_, err = h.Scan(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 3*load, h.Vocab()["apple"].Count)
	}

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stored["apple"].Count)
}
