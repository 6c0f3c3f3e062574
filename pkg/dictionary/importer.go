package dictionary

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// Importer merges an imported word list into the store.
type Importer struct {
	store *vocab.Store
}

// NewImporter creates an importer writing to store.
func NewImporter(store *vocab.Store) *Importer {
	return &Importer{store: store}
}

// Merge adds the incoming words that are not stored yet and returns them,
// sorted. Stored entries are left untouched, counts included.
func (im *Importer) Merge(ctx context.Context, incoming vocab.Vocab) ([]string, error) {
	var added []string
	_, err := im.store.Update(ctx, func(v vocab.Vocab) (bool, error) {
		added = added[:0]
		for word, e := range incoming {
			if !vocab.Valid(word) {
				continue
			}
			if _, exists := v[word]; exists {
				continue
			}
			v[word] = e
			added = append(added, word)
		}
		return len(added) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(added)
	logger.L().Info("word list imported",
		zap.Int("incoming", len(incoming)), zap.Int("added", len(added)))
	return added, nil
}

// Snapshot returns the stored word list for export.
func (im *Importer) Snapshot(ctx context.Context) (vocab.Vocab, error) {
	return im.store.Load(ctx)
}
