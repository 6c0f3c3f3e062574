// Package vocab defines the learned-word dictionary and its persistent store.
package vocab

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// StorageKey is the single key the whole dictionary is stored under.
const StorageKey = "vocab"

var wordPattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)

// Entry is the stored record for one learned word.
type Entry struct {
	Translation  string    `json:"translation" yaml:"translation" toml:"translation"`
	PartOfSpeech string    `json:"pos" yaml:"pos" toml:"pos"`
	Count        int       `json:"count" yaml:"count" toml:"count"`
	AddedAt      time.Time `json:"addedAt" yaml:"addedAt" toml:"addedAt"`
}

// Vocab maps a lowercase word to its entry.
type Vocab map[string]Entry

// Normalize trims and lowercases a selection and reports whether the result
// is an acceptable word: letters with optional internal hyphens.
func Normalize(selection string) (string, bool) {
	word := strings.ToLower(strings.TrimSpace(selection))
	if !wordPattern.MatchString(word) {
		return "", false
	}
	return word, true
}

// Valid reports whether word is already in normalized form.
func Valid(word string) bool {
	return wordPattern.MatchString(word)
}

// Clone returns a copy that can be mutated independently.
func (v Vocab) Clone() Vocab {
	out := make(Vocab, len(v))
	for k, e := range v {
		out[k] = e
	}
	return out
}

// Item is one row of a sorted listing.
type Item struct {
	Word string `json:"word"`
	Entry
}

// Sorted lists entries by descending count, ties broken by word.
func (v Vocab) Sorted() []Item {
	items := make([]Item, 0, len(v))
	for w, e := range v {
		items = append(items, Item{Word: w, Entry: e})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Word < items[j].Word
	})
	return items
}

// AddCounts adds tally onto the counts of words present in v and returns
// the words that changed. Words missing from v are ignored.
func (v Vocab) AddCounts(tally map[string]int) []string {
	var changed []string
	for w, n := range tally {
		if n <= 0 {
			continue
		}
		e, ok := v[w]
		if !ok {
			continue
		}
		e.Count += n
		v[w] = e
		changed = append(changed, w)
	}
	sort.Strings(changed)
	return changed
}
