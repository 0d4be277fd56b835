package models

import (
	"math"
	"time"

	"funding_digest/internal/textnorm"
)

// MissingAgeDays is the age given to articles without a publication time.
// It is larger than any sensible cutoff, so such articles rank last and fail age filters.
const MissingAgeDays = 9999

// RawArticle is one fetched feed entry after markup stripping. Lives for one run only.
type RawArticle struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Published *time.Time `json:"published,omitempty"`
	Source    string     `json:"source"`
	Summary   string     `json:"summary"`
}

// FilterableText is the folded title and summary that all keyword matching runs on.
func (a RawArticle) FilterableText() string {
	return textnorm.Fold(a.Title + " " + a.Summary)
}

// AgeDays returns whole days elapsed between published and now.
// A nil timestamp maps to MissingAgeDays; timestamps in the future count as age 0.
func AgeDays(published *time.Time, now time.Time) int {
	if published == nil || published.IsZero() {
		return MissingAgeDays
	}
	d := now.Sub(*published)
	if d < 0 {
		return 0
	}
	days := int(math.Floor(d.Hours() / 24))
	if days > MissingAgeDays {
		return MissingAgeDays
	}
	return days
}
