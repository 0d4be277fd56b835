// Package extract derives company identity and funding facts from free-text headlines.
//
// Extraction is best-effort pattern matching. Every output is optional except the company name,
// which always falls back to a bounded prefix of the headline.
package extract

import (
	"fmt"
	"regexp"
	"time"

	"funding_digest/internal/models"
	"funding_digest/internal/vocab"
)

// Extractor holds the patterns compiled from a vocabulary. It is safe for concurrent use.
type Extractor struct {
	verbs      *regexp.Regexp
	stripRules []stripRule
	amounts    []amountPattern
	rounds     []roundRule
}

// New compiles the extraction patterns once.
func New(v *vocab.Vocabulary) (*Extractor, error) {
	if len(v.FundingVerbs) == 0 {
		return nil, vocab.ErrNoFundingVerbs
	}
	if len(v.Currencies) == 0 {
		return nil, vocab.ErrNoCurrencies
	}

	rounds := make([]roundRule, 0, len(v.Rounds))
	for _, r := range v.Rounds {
		re, err := vocab.CompilePattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", vocab.ErrBadPattern, r.Pattern, err)
		}
		round, ok := models.ParseRound(r.Round)
		if !ok {
			return nil, fmt.Errorf("%w: %q", vocab.ErrUnknownRound, r.Round)
		}
		rounds = append(rounds, roundRule{re: re, round: round})
	}

	return &Extractor{
		verbs:      buildVerbPattern(v.FundingVerbs),
		stripRules: buildStripRules(v.Descriptors),
		amounts:    buildAmountPatterns(v.Currencies),
		rounds:     rounds,
	}, nil
}

// Company returns the display name and cluster key for a headline.
func (e *Extractor) Company(title string) (name, key string) {
	name = e.CompanyName(title)
	return name, e.ClusterKey(name)
}

// Extract builds a record from a surviving article. Tags and coverage are filled in later.
func (e *Extractor) Extract(a models.RawArticle, now time.Time) models.Record {
	name, key := e.Company(a.Title)
	amount, round := e.Funding(a.Title, a.Summary)
	return models.Record{
		CompanyName: name,
		ClusterKey:  key,
		Amount:      amount,
		Round:       round,
		AgeDays:     models.AgeDays(a.Published, now),
		Coverage:    1,
		Article:     a,
	}
}
