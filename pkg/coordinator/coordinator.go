// Package coordinator implements the add-word workflow behind the selection
// context menu: validation, translation, persistence, badge feedback and
// notifying the originating tab.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/metrics"
	"github.com/japaniel/wordlens/pkg/translate"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// DefaultBadgeDuration is how long the "+1" badge stays visible.
const DefaultBadgeDuration = 2 * time.Second

// MenuClick is a click on a context menu item.
type MenuClick struct {
	MenuItemID    string `json:"menuItemId"`
	SelectionText string `json:"selectionText"`
	TabID         string `json:"tabId"`
}

// Status is the outcome of a menu click.
type Status string

const (
	StatusIgnored Status = "ignored"
	StatusExists  Status = "exists"
	StatusAdded   Status = "added"
)

// Outcome describes what a menu click did.
type Outcome struct {
	Status    Status       `json:"status"`
	Word      string       `json:"word,omitempty"`
	Entry     *vocab.Entry `json:"entry,omitempty"`
	Delivered bool         `json:"delivered"`
}

// Options tunes a Coordinator.
type Options struct {
	BadgeDuration time.Duration
	Now           func() time.Time
}

// Coordinator owns the menu registration and the add-word workflow.
type Coordinator struct {
	store      *vocab.Store
	translator translate.Translator
	sender     messaging.Sender
	badge      *Badge
	badgeFor   time.Duration
	now        func() time.Time
}

// New creates a Coordinator. sender may be nil when no pages are open.
func New(store *vocab.Store, translator translate.Translator, sender messaging.Sender, opts Options) *Coordinator {
	if opts.BadgeDuration <= 0 {
		opts.BadgeDuration = DefaultBadgeDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		store:      store,
		translator: translator,
		sender:     sender,
		badge:      &Badge{},
		badgeFor:   opts.BadgeDuration,
		now:        opts.Now,
	}
}

// Install registers the selection menu item.
func (c *Coordinator) Install(r Registrar) error {
	return r.CreateMenuItem(MenuItem{
		ID:       MenuItemID,
		Title:    MenuItemTitle,
		Contexts: []string{ContextSel},
	})
}

// Badge returns the toolbar badge.
func (c *Coordinator) Badge() *Badge { return c.badge }

// OnMenuClick runs the add-word workflow for a click. Clicks on other items,
// empty selections and selections that are not a single English word are
// ignored without error.
func (c *Coordinator) OnMenuClick(ctx context.Context, click MenuClick) (out Outcome, err error) {
	defer func() {
		if err == nil {
			metrics.RecordMenuClick(string(out.Status))
		}
	}()

	if click.MenuItemID != MenuItemID || click.SelectionText == "" {
		return Outcome{Status: StatusIgnored}, nil
	}
	word, ok := vocab.Normalize(click.SelectionText)
	if !ok {
		logger.L().Debug("ignoring selection", zap.String("selection", click.SelectionText))
		return Outcome{Status: StatusIgnored}, nil
	}

	words, err := c.store.Load(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load word list: %w", err)
	}
	if _, exists := words[word]; exists {
		return Outcome{Status: StatusExists, Word: word}, nil
	}

	res := c.translator.Lookup(ctx, word)
	entry := vocab.Entry{
		Translation:  res.Translation,
		PartOfSpeech: res.PartOfSpeech,
		Count:        0,
		AddedAt:      c.now().UTC(),
	}

	added := false
	_, err = c.store.Update(ctx, func(v vocab.Vocab) (bool, error) {
		if _, exists := v[word]; exists {
			return false, nil
		}
		v[word] = entry
		added = true
		return true, nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("save word %q: %w", word, err)
	}
	if !added {
		return Outcome{Status: StatusExists, Word: word}, nil
	}

	logger.L().Info("word added",
		zap.String("word", word),
		zap.String("translation", entry.Translation),
		zap.String("pos", entry.PartOfSpeech))
	c.badge.Flash(BadgeText, BadgeColor, c.badgeFor)

	out = Outcome{Status: StatusAdded, Word: word, Entry: &entry}
	out.Delivered = c.notify(ctx, click.TabID, word, entry)
	return out, nil
}

func (c *Coordinator) notify(ctx context.Context, tabID, word string, entry vocab.Entry) bool {
	if c.sender == nil || tabID == "" {
		return false
	}
	err := c.sender.Send(ctx, tabID, messaging.UpdateHighlight{NewWord: word, Data: entry})
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, messaging.ErrNoReceiver) {
			level = zap.DebugLevel
		}
		logger.L().Check(level, "update_highlight not delivered").Write(
			zap.String("tab", tabID), zap.String("word", word), zap.Error(err))
		return false
	}
	return true
}
