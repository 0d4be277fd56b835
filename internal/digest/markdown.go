package digest

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"funding_digest/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// EmptyMessage is rendered instead of a list when a run finds nothing.
const EmptyMessage = "No new funding news found today. Check back tomorrow!"

const dateLayout = "02 Jan 2006"

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"|", `\|`,
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithXHTML(),
	),
)

// Subject is the mail subject line for a digest of count records.
func Subject(count int, date time.Time) string {
	return fmt.Sprintf("Sweden Startup Digest – %d %s | %s", count, plural(count, "article"), date.Format(dateLayout))
}

// Markdown renders the digest body.
func Markdown(records []models.Record, count int, date time.Time) string {
	var b strings.Builder
	b.WriteString("# Sweden Startup Funding Digest\n\n")
	fmt.Fprintf(&b, "%s · %d %s found\n\n", date.Format(dateLayout), count, plural(count, "article"))

	if len(records) == 0 {
		b.WriteString(EmptyMessage)
		b.WriteString("\n")
		return b.String()
	}

	for _, r := range records {
		writeRecord(&b, r)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, r models.Record) {
	a := r.Article
	if a.Link != "" {
		fmt.Fprintf(b, "### [%s](<%s>)\n\n", escape(a.Title), a.Link)
	} else {
		fmt.Fprintf(b, "### %s\n\n", escape(a.Title))
	}

	meta := []string{escape(a.Source), age(r.AgeDays)}
	if r.CompanyName != "" {
		meta = append(meta, "**"+escape(r.CompanyName)+"**")
	}
	if r.Amount != nil {
		meta = append(meta, r.Amount.String())
	}
	if r.Round != models.RoundNone {
		meta = append(meta, r.Round.String())
	}
	if r.Coverage > 1 {
		meta = append(meta, fmt.Sprintf("covered by %d sources", r.Coverage))
	}
	b.WriteString(strings.Join(meta, " · "))
	b.WriteString("\n\n")

	if len(r.Tags) > 0 {
		tags := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = "`" + t + "`"
		}
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n\n")
	}
	if a.Summary != "" {
		b.WriteString(escape(a.Summary))
		b.WriteString("\n\n")
	}
}

// HTML converts the markdown body into a standalone HTML document.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return wrapDocument(buf.String()), nil
}

func wrapDocument(body string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Sweden Startup Funding Digest</title>
<style>
  body { font-family: Arial, sans-serif; background: #f4f4f4; margin: 0; padding: 20px; color: #333; }
  .wrap { max-width: 680px; margin: auto; background: #fff; border-radius: 8px; padding: 24px 32px; }
  h1 { font-size: 22px; color: #0d1b2a; }
  h3 { margin: 18px 0 6px; font-size: 16px; }
  h3 a { color: #0d1b2a; text-decoration: none; }
  code { background: #e63946; color: #fff; font-size: 11px; padding: 2px 8px; border-radius: 10px; }
</style>
</head>
<body>
<div class="wrap">
` + body + `</div>
</body>
</html>
`
}

func escape(s string) string {
	return markdownEscaper.Replace(html.UnescapeString(s))
}

func age(days int) string {
	switch {
	case days >= models.MissingAgeDays:
		return "date unknown"
	case days == 0:
		return "today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
