// Package tagger attaches descriptive topic labels to articles. Labels never affect filtering.
package tagger

import (
	"sort"

	"funding_digest/internal/models"
	"funding_digest/internal/textnorm"
	"funding_digest/internal/vocab"
)

type label struct {
	name  string
	words textnorm.KeywordSet
}

// Classifier maps an article to the set of labels whose keywords it mentions.
type Classifier struct {
	labels []label
}

// New builds a classifier from the label table.
func New(rules []vocab.TagRule, mode textnorm.MatchMode) *Classifier {
	labels := make([]label, 0, len(rules))
	for _, r := range rules {
		labels = append(labels, label{name: r.Label, words: textnorm.NewKeywordSet(r.Keywords, mode)})
	}
	return &Classifier{labels: labels}
}

// Tags returns the sorted, deduplicated labels for an article.
func (c *Classifier) Tags(a models.RawArticle) []string {
	// padded so keywords written with surrounding spaces also match at the text edges
	text := " " + a.FilterableText() + " "

	seen := make(map[string]struct{})
	tags := []string{}
	for _, l := range c.labels {
		if _, ok := seen[l.name]; ok {
			continue
		}
		if l.words.MatchAny(text) {
			seen[l.name] = struct{}{}
			tags = append(tags, l.name)
		}
	}
	sort.Strings(tags)
	return tags
}
