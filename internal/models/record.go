package models

import (
	"encoding/json"
	"strconv"
)

// Magnitude is the one-letter scale suffix of an amount.
type Magnitude string

const (
	Thousand Magnitude = "K"
	Million  Magnitude = "M"
	Billion  Magnitude = "B"
)

// Amount is a funding amount such as €5M or SEK50M.
type Amount struct {
	Symbol string    `json:"symbol"`
	Value  float64   `json:"value"`
	Unit   Magnitude `json:"unit"`
}

// String renders the compact canonical form: symbol, numeral, magnitude.
func (a Amount) String() string {
	return a.Symbol + strconv.FormatFloat(a.Value, 'f', -1, 64) + string(a.Unit)
}

// Round is the stage of a funding event.
type Round int

const (
	RoundNone Round = iota
	PreSeed
	Seed
	SeriesA
	SeriesB
	SeriesC
	SeriesD
	SeriesE
	Growth
	Bridge
	IPO
	Crowdfunding
)

var roundNames = map[Round]string{
	PreSeed:      "Pre-Seed",
	Seed:         "Seed",
	SeriesA:      "Series A",
	SeriesB:      "Series B",
	SeriesC:      "Series C",
	SeriesD:      "Series D",
	SeriesE:      "Series E",
	Growth:       "Growth",
	Bridge:       "Bridge",
	IPO:          "IPO",
	Crowdfunding: "Crowdfunding",
}

func (r Round) String() string {
	return roundNames[r]
}

// ParseRound maps a display name such as "Series A" back to its Round.
func ParseRound(name string) (Round, bool) {
	for k, v := range roundNames {
		if v == name {
			return k, true
		}
	}
	return RoundNone, false
}

// MarshalJSON encodes the display name, or null when no round was found.
func (r Round) MarshalJSON() ([]byte, error) {
	if r == RoundNone {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the display name produced by MarshalJSON.
func (r *Round) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RoundNone
	if s != nil {
		*r, _ = ParseRound(*s)
	}
	return nil
}

// Record is the structured result extracted from one surviving article.
// ClusterKey is only used for grouping and is never serialized.
type Record struct {
	CompanyName string     `json:"company"`
	ClusterKey  string     `json:"-"`
	Amount      *Amount    `json:"amount,omitempty"`
	Round       Round      `json:"round"`
	Tags        []string   `json:"tags"`
	AgeDays     int        `json:"age_days"`
	Coverage    int        `json:"coverage"`
	Article     RawArticle `json:"article"`
}
