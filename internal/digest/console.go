package digest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"funding_digest/internal/models"

	"github.com/mattn/go-runewidth"
)

const maxTitleWidth = 60

var columns = []string{"#", "Company", "Amount", "Round", "Age", "Cov", "Source", "Title"}

// Console prints the digest as an aligned table.
type Console struct {
	w   io.Writer
	now func() time.Time
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, now: time.Now}
}

// WithClock replaces the time source for the heading date.
func (c *Console) WithClock(now func() time.Time) *Console {
	c.now = now
	return c
}

func (c *Console) Deliver(_ context.Context, records []models.Record, count int) error {
	if _, err := fmt.Fprintln(c.w, Subject(count, c.now())); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(c.w, EmptyMessage)
		return err
	}
	for _, line := range Table(records) {
		if _, err := fmt.Fprintln(c.w, line); err != nil {
			return err
		}
	}
	return nil
}

// Table lays out records in columns padded by display width.
func Table(records []models.Record) []string {
	rows := [][]string{columns}
	for i, r := range records {
		amount, round := "", ""
		if r.Amount != nil {
			amount = r.Amount.String()
		}
		if r.Round != models.RoundNone {
			round = r.Round.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.CompanyName,
			amount,
			round,
			shortAge(r.AgeDays),
			strconv.Itoa(r.Coverage),
			r.Article.Source,
			runewidth.Truncate(r.Article.Title, maxTitleWidth, "…"),
		})
	}

	widths := make([]int, len(columns))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		var sb strings.Builder
		for j, cell := range row {
			if j > 0 {
				sb.WriteString("  ")
			}
			if j == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[j]))
		}
		lines = append(lines, sb.String())
		if i == 0 {
			sep := make([]string, len(widths))
			for k, w := range widths {
				sep[k] = strings.Repeat("-", w)
			}
			lines = append(lines, strings.Join(sep, "  "))
		}
	}
	return lines
}

func shortAge(days int) string {
	if days >= models.MissingAgeDays {
		return "?"
	}
	return strconv.Itoa(days) + "d"
}
