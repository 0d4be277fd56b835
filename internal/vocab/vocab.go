// Package vocab holds the keyword lists, title patterns and tables that drive filtering,
// extraction, tagging and clustering. A Vocabulary is loaded once and never mutated; components
// copy what they need into their own compiled form.
package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"funding_digest/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Vocabulary validation errors.
var (
	ErrNoHomeRegions    = errors.New("regions.home must not be empty")
	ErrNoFundingSignals = errors.New("funding_signals must not be empty")
	ErrNoFundingVerbs   = errors.New("funding_verbs must not be empty")
	ErrNoCurrencies     = errors.New("currencies must not be empty")
	ErrBadPattern       = errors.New("invalid pattern")
	ErrUnknownRound     = errors.New("unknown round name")
	ErrEmptyTagLabel    = errors.New("tag label must not be empty")
)

// Vocabulary is the full set of swappable matching data.
type Vocabulary struct {
	Regions          Regions           `yaml:"regions"`
	FundingSignals   []string          `yaml:"funding_signals"`
	DomainKeywords   []string          `yaml:"domain_keywords"`
	Exclusions       []string          `yaml:"exclusions"`
	BadTitlePatterns []string          `yaml:"bad_title_patterns"`
	FundingVerbs     []string          `yaml:"funding_verbs"`
	Descriptors      Descriptors       `yaml:"descriptors"`
	Currencies       map[string]string `yaml:"currencies"`
	Rounds           []RoundRule       `yaml:"rounds"`
	Tags             []TagRule         `yaml:"tags"`
	SourcePriority   []string          `yaml:"source_priority"`
}

// Regions splits geographic markers by role.
// Shared markers count as local for the home-region stage but not for foreign exclusivity.
type Regions struct {
	Home    []string `yaml:"home"`
	Shared  []string `yaml:"shared"`
	Foreign []string `yaml:"foreign"`
}

// Descriptors are the leading words stripped from a headline before the company name.
type Descriptors struct {
	Localities     []string `yaml:"localities"`
	Nationalities  []string `yaml:"nationalities"`
	Sectors        []string `yaml:"sectors"`
	Nouns          []string `yaml:"nouns"`
	HyphenSuffixes []string `yaml:"hyphen_suffixes"`
	Leading        []string `yaml:"leading"`
}

// RoundRule maps a case-insensitive regular expression to a round display name.
type RoundRule struct {
	Pattern string `yaml:"pattern"`
	Round   string `yaml:"round"`
}

// TagRule attaches Label when any of Keywords occurs.
type TagRule struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	return Parse(defaultYAML)
}

// Load reads a vocabulary file. An empty path yields the embedded default.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML vocabulary data.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate checks required lists and compiles every pattern once to surface syntax errors early.
func (v *Vocabulary) Validate() error {
	if len(v.Regions.Home) == 0 {
		return ErrNoHomeRegions
	}
	if len(v.FundingSignals) == 0 {
		return ErrNoFundingSignals
	}
	if len(v.FundingVerbs) == 0 {
		return ErrNoFundingVerbs
	}
	if len(v.Currencies) == 0 {
		return ErrNoCurrencies
	}
	for _, p := range v.BadTitlePatterns {
		if _, err := CompilePattern(p); err != nil {
			return fmt.Errorf("%w: bad_title_patterns %q: %v", ErrBadPattern, p, err)
		}
	}
	for _, r := range v.Rounds {
		if _, err := CompilePattern(r.Pattern); err != nil {
			return fmt.Errorf("%w: rounds %q: %v", ErrBadPattern, r.Pattern, err)
		}
		if _, ok := models.ParseRound(r.Round); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRound, r.Round)
		}
	}
	for _, t := range v.Tags {
		if strings.TrimSpace(t.Label) == "" {
			return ErrEmptyTagLabel
		}
	}
	return nil
}

// CompilePattern compiles a vocabulary pattern case-insensitively.
func CompilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + p)
}

// LocalMarkers returns home and shared markers together.
func (r Regions) LocalMarkers() []string {
	out := make([]string, 0, len(r.Home)+len(r.Shared))
	out = append(out, r.Home...)
	return append(out, r.Shared...)
}
