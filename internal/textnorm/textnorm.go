// Package textnorm canonicalizes text fragments and matches keyword vocabularies against them.
package textnorm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var apostrophes = strings.NewReplacer(
	"’", "'", // right single quote
	"‘", "'", // left single quote
	"‛", "'",
	"′", "'", // prime
	"ʼ", "'", // modifier letter apostrophe
	"＇", "'", // fullwidth
	"´", "'", // acute accent
	"`", "'",
)

// Apostrophes rewrites every apostrophe variant to ASCII '.
func Apostrophes(s string) string {
	return apostrophes.Replace(s)
}

// Fold is Apostrophes followed by lowercasing. All vocabulary matching runs on folded text.
func Fold(s string) string {
	return strings.ToLower(Apostrophes(s))
}

// MatchMode selects how a keyword is found inside a text.
type MatchMode string

const (
	// Substring matches anywhere, including inside longer words ("ai" in "said").
	Substring MatchMode = "substring"
	// Word requires the match to be bounded by non-alphanumeric runes or the text edges.
	Word MatchMode = "word"
)

// ParseMatchMode maps a config value to a MatchMode. Empty means Substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Substring:
		return Substring, nil
	case Word:
		return Word, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// KeywordSet is an immutable, folded keyword vocabulary.
type KeywordSet struct {
	words []string
	mode  MatchMode
}

// NewKeywordSet folds and deduplicates words. Blank entries are dropped.
// Surrounding spaces are kept, so " ai " can serve as a crude word match in substring mode.
func NewKeywordSet(words []string, mode MatchMode) KeywordSet {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = Fold(w)
		if strings.TrimSpace(w) == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if mode == "" {
		mode = Substring
	}
	return KeywordSet{words: out, mode: mode}
}

// Len returns the number of keywords in the set.
func (k KeywordSet) Len() int {
	return len(k.words)
}

// MatchAny reports whether text contains at least one keyword. text must already be folded.
func (k KeywordSet) MatchAny(text string) bool {
	for _, w := range k.words {
		if k.contains(text, w) {
			return true
		}
	}
	return false
}

// Matches returns every keyword found in text, in vocabulary order.
func (k KeywordSet) Matches(text string) []string {
	var found []string
	for _, w := range k.words {
		if k.contains(text, w) {
			found = append(found, w)
		}
	}
	return found
}

func (k KeywordSet) contains(text, word string) bool {
	if k.mode != Word {
		return strings.Contains(text, word)
	}
	return ContainsWord(text, word)
}

// ContainsWord reports whether word occurs in text with no letter or digit directly on either side.
// An edge of word that is itself a space or punctuation is its own boundary, so " ai " and " ai-" still match.
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	last, _ := utf8.DecodeLastRuneInString(word)
	checkBefore, checkAfter := isWordRune(first), isWordRune(last)
	for start := 0; start <= len(text)-len(word); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if (!checkBefore || boundaryBefore(text, i)) && (!checkAfter || boundaryAfter(text, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CollapseSpaces trims s and replaces every whitespace run with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes, preferring the last word boundary, without adding an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)[:n]
	cut := string(runes)
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
