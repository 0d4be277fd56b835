package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"funding_digest/internal/textnorm"
	"funding_digest/internal/vocab"
)

const (
	// maxNameWords is the longest candidate kept as-is after descriptor stripping.
	maxNameWords = 3
	// maxTrailingWords caps how many trailing capitalized words are kept for long candidates.
	maxTrailingWords = 2
	// prefixRunes bounds the title prefix used when no verb matches or stripping empties the name.
	prefixRunes = 40
	// maxKeyPasses bounds the cluster key fixed-point loop.
	maxKeyPasses = 16
)

// stripRule removes a leading descriptor. Patterns are anchored at the start of the candidate.
type stripRule struct {
	name string
	re   *regexp.Regexp
}

func buildStripRules(d vocab.Descriptors) []stripRule {
	var rules []stripRule
	add := func(name, pattern string) {
		rules = append(rules, stripRule{name: name, re: regexp.MustCompile(`(?i)` + pattern)})
	}
	if len(d.Leading) > 0 {
		add("leading", `^(?:`+alternation(d.Leading)+`)\s*[:|–—-]?\s+`)
	}
	if len(d.Localities) > 0 {
		add("locality", `^(?:`+alternation(d.Localities)+`)(?:'s)?\s+`)
	}
	if len(d.Nationalities) > 0 {
		add("nationality", `^(?:`+alternation(d.Nationalities)+`)\s+`)
	}
	if len(d.HyphenSuffixes) > 0 {
		add("hyphenated", `^[\p{L}\p{N}]+(?:-[\p{L}\p{N}]+)*-(?:`+alternation(d.HyphenSuffixes)+`)\s+`)
	}
	if len(d.Sectors) > 0 {
		add("sector", `^(?:`+alternation(d.Sectors)+`)\s+`)
	}
	if len(d.Nouns) > 0 {
		add("noun", `^(?:`+alternation(d.Nouns)+`)\s+`)
	}
	return rules
}

// alternation quotes words and orders them longest first so longer phrases win.
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(textnorm.Apostrophes(w))
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// buildVerbPattern matches a funding verb as a whole phrase preceded by whitespace.
func buildVerbPattern(verbs []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s(?:` + alternation(verbs) + `)(?:[\s,:;.!]|$)`)
}

// stripDescriptors applies the strip rules until none matches.
// A rule never removes the whole candidate.
func (e *Extractor) stripDescriptors(s string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, r := range e.stripRules {
			loc := r.re.FindStringIndex(s)
			if loc == nil || loc[0] != 0 {
				continue
			}
			rest := strings.TrimSpace(s[loc[1]:])
			if rest == "" {
				continue
			}
			s = rest
			changed = true
		}
	}
	return s
}

// beforeVerb returns the text preceding the first funding verb that has a letter or digit before it.
func (e *Extractor) beforeVerb(title string) (string, bool) {
	for _, loc := range e.verbs.FindAllStringIndex(title, -1) {
		before := strings.TrimSpace(title[:loc[0]])
		if strings.IndexFunc(before, isWordRune) >= 0 {
			return before, true
		}
	}
	return "", false
}

// startsWithVerb reports whether the title opens with a funding verb.
func (e *Extractor) startsWithVerb(title string) bool {
	loc := e.verbs.FindStringIndex(" " + title)
	return loc != nil && loc[0] == 0
}

// CompanyName derives a display name from a headline.
// When the headline contains a funding verb the name is always shorter than the headline.
func (e *Extractor) CompanyName(title string) string {
	t := textnorm.CollapseSpaces(textnorm.Apostrophes(title))

	limit := prefixRunes
	candidate, ok := e.beforeVerb(t)
	fallbackSource := t
	if ok {
		fallbackSource = candidate
	} else {
		if n := utf8.RuneCountInString(t) - 1; n > 0 && n < limit && e.startsWithVerb(t) {
			limit = n
		}
		candidate = textnorm.Truncate(t, limit)
	}

	name := e.stripDescriptors(candidate)
	name = trailingCapitalized(name)
	name = trimPunctuation(name)
	if name != "" {
		return name
	}

	name = trimPunctuation(textnorm.Truncate(fallbackSource, limit))
	if name == "" {
		name = strings.TrimSpace(textnorm.Truncate(fallbackSource, limit))
	}
	return name
}

// trailingCapitalized keeps the last one or two capitalized words of a long descriptor chain.
func trailingCapitalized(s string) string {
	words := strings.Fields(s)
	if len(words) <= maxNameWords {
		return s
	}

	var run []string
	for i := len(words) - 1; i >= 0 && len(run) < maxTrailingWords; i-- {
		if !isCapitalized(words[i]) {
			break
		}
		run = append([]string{words[i]}, run...)
	}
	if len(run) > 0 {
		return strings.Join(run, " ")
	}

	for i := len(words) - 1; i >= 0; i-- {
		if isCapitalized(words[i]) {
			return words[i]
		}
	}
	return s
}

func isCapitalized(word string) bool {
	for _, r := range word {
		if unicode.IsPunct(r) {
			continue
		}
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}

func trimPunctuation(s string) string {
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.Is(unicode.Pd, r)
	})
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == '“' || r == '«'
	})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ClusterKey turns a display name into the coarse identity used for grouping.
// It is a pure function of name and idempotent: ClusterKey(ClusterKey(x)) == ClusterKey(x).
func (e *Extractor) ClusterKey(name string) string {
	key := name
	for i := 0; i < maxKeyPasses; i++ {
		next := e.keyPass(key)
		if next == key {
			break
		}
		key = next
	}
	if key == "" {
		return textnorm.Fold(textnorm.CollapseSpaces(name))
	}
	return key
}

func (e *Extractor) keyPass(s string) string {
	s = e.stripDescriptors(textnorm.Apostrophes(s))
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, "'s")
	s = strings.TrimSuffix(s, "'")
	s = strings.Map(func(r rune) rune {
		switch {
		case isWordRune(r), unicode.IsSpace(r):
			return r
		case r == '-', r == '_', r == '/', r == '&', r == '+':
			return ' '
		default:
			return -1
		}
	}, s)
	return textnorm.CollapseSpaces(s)
}
