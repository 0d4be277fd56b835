package extract

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"funding_digest/internal/models"
	"funding_digest/internal/textnorm"
)

var magnitudes = map[string]models.Magnitude{
	"k":         models.Thousand,
	"thousand":  models.Thousand,
	"m":         models.Million,
	"mn":        models.Million,
	"million":   models.Million,
	"millions":  models.Million,
	"miljon":    models.Million,
	"miljoner":  models.Million,
	"b":         models.Billion,
	"bn":        models.Billion,
	"billion":   models.Billion,
	"billions":  models.Billion,
	"miljard":   models.Billion,
	"miljarder": models.Billion,
}

// Swedish compound units carry both currency and magnitude.
var compoundUnits = map[string]models.Amount{
	"msek":             {Symbol: "SEK", Unit: models.Million},
	"mkr":              {Symbol: "SEK", Unit: models.Million},
	"miljoner kronor":  {Symbol: "SEK", Unit: models.Million},
	"mdkr":             {Symbol: "SEK", Unit: models.Billion},
	"mdsek":            {Symbol: "SEK", Unit: models.Billion},
	"miljarder kronor": {Symbol: "SEK", Unit: models.Billion},
}

const numeral = `(\d+(?:[.,]\d+)?)`

type amountPattern struct {
	re *regexp.Regexp
	// build turns submatches into an amount; ok is false for malformed numerals.
	build func(m []string) (models.Amount, bool)
}

type roundRule struct {
	re    *regexp.Regexp
	round models.Round
}

func buildAmountPatterns(currencies map[string]string) []amountPattern {
	keys := make([]string, 0, len(currencies))
	symbols := make(map[string]string, len(currencies))
	for k, v := range currencies {
		k = strings.ToLower(strings.TrimSpace(k))
		keys = append(keys, k)
		symbols[k] = v
	}
	sort.Strings(keys)
	cur := alternation(keys)
	mag := alternation(mapKeys(magnitudes))
	compound := alternation(mapKeys(compoundUnits))

	symbolFirst := regexp.MustCompile(`(?i)(?:^|[^\p{L}])(` + cur + `)\s?` + numeral + `\s?(` + mag + `)(?:[^\p{L}\p{N}]|$)`)
	wordFirst := regexp.MustCompile(`(?i)` + numeral + `\s?(` + mag + `)\s+(?:of\s+)?(` + cur + `)(?:[^\p{L}]|$)`)
	swedish := regexp.MustCompile(`(?i)` + numeral + `\s?(` + compound + `)(?:[^\p{L}]|$)`)

	return []amountPattern{
		{re: symbolFirst, build: func(m []string) (models.Amount, bool) {
			return newAmount(symbols[strings.ToLower(m[1])], m[2], magnitudes[strings.ToLower(m[3])])
		}},
		{re: wordFirst, build: func(m []string) (models.Amount, bool) {
			return newAmount(symbols[strings.ToLower(m[3])], m[1], magnitudes[strings.ToLower(m[2])])
		}},
		{re: swedish, build: func(m []string) (models.Amount, bool) {
			unit := compoundUnits[strings.ToLower(m[2])]
			return newAmount(unit.Symbol, m[1], unit.Unit)
		}},
	}
}

func newAmount(symbol, num string, unit models.Magnitude) (models.Amount, bool) {
	if symbol == "" || unit == "" {
		return models.Amount{}, false
	}
	value, err := parseNumeral(num)
	if err != nil || value <= 0 {
		return models.Amount{}, false
	}
	return models.Amount{Symbol: symbol, Value: value, Unit: unit}, true
}

// parseNumeral accepts "5", "1.5", "1,5" (decimal comma) and "1,500" (thousands separator).
func parseNumeral(s string) (float64, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		if len(s)-i-1 == 3 {
			s = s[:i] + s[i+1:]
		} else {
			s = s[:i] + "." + s[i+1:]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// Amount finds the earliest well-formed amount in text. A malformed numeral is skipped.
func (e *Extractor) Amount(text string) *models.Amount {
	text = textnorm.Apostrophes(text)
	bestPos := -1
	var best models.Amount
	for _, p := range e.amounts {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if bestPos >= 0 && loc[0] >= bestPos {
				break
			}
			m := submatches(text, loc)
			a, ok := p.build(m)
			if !ok {
				continue
			}
			bestPos, best = loc[0], a
			break
		}
	}
	if bestPos < 0 {
		return nil
	}
	return &best
}

// Round finds the earliest round phrase in text. Ties go to the rule listed first.
func (e *Extractor) Round(text string) models.Round {
	bestPos := -1
	round := models.RoundNone
	for _, r := range e.rounds {
		loc := r.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos < 0 || loc[0] < bestPos {
			bestPos, round = loc[0], r.round
		}
	}
	return round
}

// Funding extracts amount and round from the headline and summary together.
func (e *Extractor) Funding(title, summary string) (*models.Amount, models.Round) {
	text := textnorm.Apostrophes(title + " " + summary)
	return e.Amount(text), e.Round(text)
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
