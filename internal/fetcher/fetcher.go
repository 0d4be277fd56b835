// Package fetcher reads RSS sources and turns their entries into raw articles.
package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"funding_digest/internal/config"
	"funding_digest/internal/models"
	"funding_digest/internal/textnorm"

	"github.com/PuerkitoBio/goquery"
)

// GoogleNewsSearchURL is the RSS search endpoint used for query sources.
const GoogleNewsSearchURL = "https://news.google.com/rss/search"

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// Client fetches feeds and converts their entries into raw articles.
type Client struct {
	http         *http.Client
	searchURL    string
	summaryRunes int
}

// NewClient returns a client with the given request timeout and summary bound.
func NewClient(timeout time.Duration, summaryRunes int) *Client {
	return &Client{
		http:         &http.Client{Timeout: timeout},
		searchURL:    GoogleNewsSearchURL,
		summaryRunes: summaryRunes,
	}
}

// WithSearchURL overrides the search endpoint. Used by tests.
func (c *Client) WithSearchURL(u string) *Client {
	c.searchURL = u
	return c
}

// SourceURL resolves a source to the feed URL it reads.
func (c *Client) SourceURL(src config.Source) string {
	if src.URL != "" {
		return src.URL
	}
	q := url.Values{}
	q.Set("q", src.Query)
	q.Set("hl", "en-SE")
	q.Set("gl", "SE")
	q.Set("ceid", "SE:en")
	return c.searchURL + "?" + q.Encode()
}

// Fetch reads one source exactly once. It returns an error instead of partial results.
func (c *Client) Fetch(ctx context.Context, src config.Source) ([]models.RawArticle, error) {
	rss, err := c.FetchRSS(ctx, c.SourceURL(src))
	if err != nil {
		return nil, err
	}

	items := rss.Channel.Items
	if src.Limit > 0 && len(items) > src.Limit {
		items = items[:src.Limit]
	}

	articles := make([]models.RawArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, c.toArticle(item, src))
	}
	return articles, nil
}

// FetchRSS downloads the feed at url and decodes it into models.RSS.
func (c *Client) FetchRSS(ctx context.Context, url string) (*models.RSS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "funding-digest/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var rss models.RSS
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &rss, nil
}

func (c *Client) toArticle(item models.Item, src config.Source) models.RawArticle {
	source := strings.TrimSpace(item.Source.Name)
	if source == "" {
		source = src.Name
	}
	title := textnorm.CollapseSpaces(item.Title)
	if title == "" {
		title = "No title"
	}
	return models.RawArticle{
		Title:     title,
		Link:      strings.TrimSpace(item.Link),
		Published: ParseDate(item.PubDate),
		Source:    source,
		Summary:   textnorm.Truncate(StripMarkup(item.Description), c.summaryRunes),
	}
}

// ParseDate tries the common feed date layouts. Unparseable or empty input yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// StripMarkup converts an HTML fragment to plain text with collapsed whitespace.
func StripMarkup(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return textnorm.CollapseSpaces(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return textnorm.CollapseSpaces(html)
	}
	doc.Find("script, style").Remove()
	return textnorm.CollapseSpaces(doc.Text())
}
