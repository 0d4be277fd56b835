// Package filter decides whether a fetched article is relevant enough to extract.
//
// A Pipeline is an ordered list of independent stages. An article survives only if every stage
// passes; evaluation stops at the first failure. Every stage is a pure function of the article,
// the reference time and the vocabulary given at construction.
package filter

import (
	"regexp"
	"time"

	"funding_digest/internal/models"
	"funding_digest/internal/textnorm"
	"funding_digest/internal/vocab"
)

// Stage names, in evaluation order.
const (
	StageAge             = "age"
	StageHomeRegion      = "home_region"
	StageFundingSignal   = "funding_signal"
	StageDomainRelevance = "domain_relevance"
	StageExclusion       = "exclusion"
	StageLowQualityTitle = "low_quality_title"
	StageForeignRegion   = "foreign_region"
)

// Input is the view of an article every stage sees.
type Input struct {
	Article models.RawArticle
	// Text is the folded title + summary.
	Text    string
	AgeDays int
}

// Stage is one predicate of the pipeline.
type Stage interface {
	Name() string
	Pass(in Input) bool
}

// Options tune the pipeline beyond the vocabulary.
type Options struct {
	MaxAgeDays    int
	RequireDomain bool
	MatchMode     textnorm.MatchMode
}

// Pipeline evaluates its stages in order.
type Pipeline struct {
	stages []Stage
}

// New builds the standard seven-stage pipeline from a vocabulary.
func New(v *vocab.Vocabulary, opts Options) *Pipeline {
	mode := opts.MatchMode
	local := textnorm.NewKeywordSet(v.Regions.LocalMarkers(), mode)
	home := textnorm.NewKeywordSet(v.Regions.Home, mode)
	foreign := textnorm.NewKeywordSet(v.Regions.Foreign, mode)

	stages := []Stage{
		ageStage{max: opts.MaxAgeDays},
		requireStage{name: StageHomeRegion, words: local},
		requireStage{name: StageFundingSignal, words: textnorm.NewKeywordSet(v.FundingSignals, mode)},
	}
	if opts.RequireDomain {
		stages = append(stages, requireStage{name: StageDomainRelevance, words: textnorm.NewKeywordSet(v.DomainKeywords, mode)})
	}
	stages = append(stages,
		vetoStage{name: StageExclusion, words: textnorm.NewKeywordSet(v.Exclusions, mode)},
		newTitleStage(v.BadTitlePatterns),
		foreignStage{foreign: foreign, home: home},
	)
	return &Pipeline{stages: stages}
}

// NewPipeline assembles a pipeline from arbitrary stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stage names in evaluation order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Passes reports whether the article survives every stage.
func (p *Pipeline) Passes(a models.RawArticle, now time.Time) bool {
	ok, _ := p.Evaluate(a, now)
	return ok
}

// Evaluate runs the stages and returns the name of the first failing one.
func (p *Pipeline) Evaluate(a models.RawArticle, now time.Time) (bool, string) {
	in := Input{
		Article: a,
		Text:    a.FilterableText(),
		AgeDays: models.AgeDays(a.Published, now),
	}
	for _, s := range p.stages {
		if !s.Pass(in) {
			return false, s.Name()
		}
	}
	return true, ""
}

type ageStage struct {
	max int
}

func (ageStage) Name() string { return StageAge }

func (s ageStage) Pass(in Input) bool {
	return in.AgeDays <= s.max
}

// requireStage passes when the text contains at least one keyword.
type requireStage struct {
	name  string
	words textnorm.KeywordSet
}

func (s requireStage) Name() string { return s.name }

func (s requireStage) Pass(in Input) bool {
	return s.words.MatchAny(in.Text)
}

// vetoStage fails when the text contains any keyword.
type vetoStage struct {
	name  string
	words textnorm.KeywordSet
}

func (s vetoStage) Name() string { return s.name }

func (s vetoStage) Pass(in Input) bool {
	return !s.words.MatchAny(in.Text)
}

// titleStage rejects listicles, fund launches and valuation milestones.
type titleStage struct {
	patterns []*regexp.Regexp
}

// newTitleStage expects patterns already checked by vocab.Validate.
func newTitleStage(patterns []string) titleStage {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := vocab.CompilePattern(p)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return titleStage{patterns: compiled}
}

func (titleStage) Name() string { return StageLowQualityTitle }

func (s titleStage) Pass(in Input) bool {
	title := textnorm.Apostrophes(in.Article.Title)
	for _, re := range s.patterns {
		if re.MatchString(title) {
			return false
		}
	}
	return true
}

// foreignStage rejects neighbouring-country stories that only share regional vocabulary.
type foreignStage struct {
	foreign textnorm.KeywordSet
	home    textnorm.KeywordSet
}

func (foreignStage) Name() string { return StageForeignRegion }

func (s foreignStage) Pass(in Input) bool {
	if !s.foreign.MatchAny(in.Text) {
		return true
	}
	return s.home.MatchAny(in.Text)
}
