package highlight

import "regexp"

// wordRun matches the alphabetic runs a page text is split on.
var wordRun = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// Token is one piece of a split text node.
type Token struct {
	Surface string // the text as it appears (e.g. "Apple")
	IsWord  bool   // true for alphabetic runs, false for separators
}

// Split breaks text into alternating separators and alphabetic runs.
// Concatenating the surfaces gives back the original text.
func Split(text string) []Token {
	locs := wordRun.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Token{{Surface: text}}
	}

	tokens := make([]Token, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			tokens = append(tokens, Token{Surface: text[last:loc[0]]})
		}
		tokens = append(tokens, Token{Surface: text[loc[0]:loc[1]], IsWord: true})
		last = loc[1]
	}
	if last < len(text) {
		tokens = append(tokens, Token{Surface: text[last:]})
	}
	return tokens
}
