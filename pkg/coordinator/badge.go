package coordinator

import (
	"sync"
	"time"
)

// Badge feedback shown after a word is added.
const (
	BadgeText  = "+1"
	BadgeColor = "#4CAF50"
)

// BadgeState is what the toolbar badge currently shows. Empty text means
// no badge.
type BadgeState struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Badge is a transient toolbar badge.
type Badge struct {
	mu    sync.Mutex
	state BadgeState
	gen   uint64
	timer *time.Timer
}

// Flash shows text in color and clears it after d. A newer flash restarts
// the countdown.
func (b *Badge) Flash(text, color string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.state = BadgeState{Text: text, Color: color}
	b.timer = time.AfterFunc(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen == gen {
			b.state.Text = ""
		}
	})
}

// State returns the current badge.
func (b *Badge) State() BadgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stop cancels a pending clear.
func (b *Badge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}
