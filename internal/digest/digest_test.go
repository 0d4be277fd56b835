package digest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"os"
	"strings"
	"testing"
	"time"

	"funding_digest/internal/config"
	"funding_digest/internal/digest"
	"funding_digest/internal/logger"
	"funding_digest/internal/models"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

var date = time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func sampleRecords() []models.Record {
	return []models.Record{
		{
			CompanyName: "Acme",
			Amount:      &models.Amount{Symbol: "€", Value: 5, Unit: models.Million},
			Round:       models.SeriesA,
			Tags:        []string{"Fintech"},
			AgeDays:     1,
			Coverage:    2,
			Article: models.RawArticle{
				Title:   "Acme secures €5M Series A",
				Link:    "https://example.com/acme",
				Source:  "Breakit",
				Summary: "The Stockholm company plans to hire.",
			},
		},
		{
			CompanyName: "Bëta",
			AgeDays:     models.MissingAgeDays,
			Coverage:    1,
			Article:     models.RawArticle{Title: "Bëta [beta] raises *more*", Source: "Sifted"},
		},
	}
}

func TestSubject(t *testing.T) {
	require.Equal(t, "Sweden Startup Digest – 3 articles | 14 Mar 2025", digest.Subject(3, date))
	require.Equal(t, "Sweden Startup Digest – 1 article | 14 Mar 2025", digest.Subject(1, date))
	require.Equal(t, "Sweden Startup Digest – 0 articles | 14 Mar 2025", digest.Subject(0, date))
}

func TestMarkdown(t *testing.T) {
	text := digest.Markdown(sampleRecords(), 2, date)

	require.Contains(t, text, "# Sweden Startup Funding Digest")
	require.Contains(t, text, "14 Mar 2025 · 2 articles found")
	require.Contains(t, text, "### [Acme secures €5M Series A](<https://example.com/acme>)")
	require.Contains(t, text, "Breakit · 1 day ago · **Acme** · €5M · Series A · covered by 2 sources")
	require.Contains(t, text, "`Fintech`")
	require.Contains(t, text, `### Bëta \[beta\] raises \*more\*`)
	require.Contains(t, text, "date unknown")
	require.NotContains(t, text, digest.EmptyMessage)
}

func TestMarkdown_Empty(t *testing.T) {
	text := digest.Markdown(nil, 0, date)
	require.Contains(t, text, "0 articles found")
	require.Contains(t, text, digest.EmptyMessage)
}

func TestHTML(t *testing.T) {
	out, err := digest.HTML(digest.Markdown(sampleRecords(), 2, date))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, `<a href="https://example.com/acme">Acme secures €5M Series A</a>`)
	require.Contains(t, out, "<strong>Acme</strong>")
	require.Contains(t, out, "<code>Fintech</code>")
	require.Contains(t, out, "Bëta [beta] raises *more*")
}

func TestTable(t *testing.T) {
	lines := digest.Table(sampleRecords())
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "#  Company"))
	require.True(t, strings.HasPrefix(lines[1], "-  -------"))

	// every column before the title starts at the same display offset
	titleCol := runewidth.StringWidth(lines[0]) - runewidth.StringWidth("Title")
	for _, line := range lines[2:] {
		require.GreaterOrEqual(t, runewidth.StringWidth(line), titleCol)
	}
	require.Contains(t, lines[2], "€5M")
	require.Contains(t, lines[3], "?")
}

func TestConsole_Deliver(t *testing.T) {
	var buf bytes.Buffer
	c := digest.NewConsole(&buf).WithClock(func() time.Time { return date })

	require.NoError(t, c.Deliver(context.Background(), sampleRecords(), 2))
	out := buf.String()
	require.Contains(t, out, "Sweden Startup Digest – 2 articles | 14 Mar 2025")
	require.Contains(t, out, "Acme")

	buf.Reset()
	require.NoError(t, c.Deliver(context.Background(), nil, 0))
	require.Contains(t, buf.String(), digest.EmptyMessage)
}

type sent struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func testMailer(out *sent) *digest.Mailer {
	cfg := config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "digest@example.com",
		Password: "secret",
		From:     "digest@example.com",
		To:       "me@example.com",
	}
	return digest.NewMailer(cfg).
		WithClock(func() time.Time { return date }).
		WithSender(func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
			*out = sent{addr: addr, auth: auth, from: from, to: to, msg: msg}
			return nil
		})
}

func TestMailer_Deliver(t *testing.T) {
	var out sent
	require.NoError(t, testMailer(&out).Deliver(context.Background(), sampleRecords(), 2))

	require.Equal(t, "smtp.example.com:587", out.addr)
	require.NotNil(t, out.auth)
	require.Equal(t, "digest@example.com", out.from)
	require.Equal(t, []string{"me@example.com"}, out.to)

	msg, err := mail.ReadMessage(bytes.NewReader(out.msg))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, "Sweden Startup Digest – 2 articles | 14 Mar 2025", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])
	parts := map[string]string{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		raw, err := io.ReadAll(part)
		require.NoError(t, err)
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
		require.NoError(t, err)
		ct, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		parts[ct] = string(decoded)
	}
	require.Contains(t, parts["text/plain"], "covered by 2 sources")
	require.Contains(t, parts["text/html"], `<a href="https://example.com/acme">`)
}

func TestMailer_EmptyDigestStillSent(t *testing.T) {
	var out sent
	require.NoError(t, testMailer(&out).Deliver(context.Background(), nil, 0))
	require.NotEmpty(t, out.msg)
}

func TestMailer_NotConfigured(t *testing.T) {
	m := digest.NewMailer(config.SMTPConfig{Host: "smtp.example.com"})
	err := m.Deliver(context.Background(), nil, 0)
	require.ErrorIs(t, err, digest.ErrMailNotConfigured)
}
