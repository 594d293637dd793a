// Package listing scrapes paper records from a category listing page.
package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/models"
)

// maxBody caps a listing page read.
const maxBody = 10 << 20

// Selectors for the WordPress theme the listing pages use.
const (
	articleSelector = "article.jeg_post"
	titleSelector   = "h3.jeg_post_title a[href]"
	excerptSelector = "div.jeg_post_excerpt p"
	imageSelector   = "div.jeg_thumb img"
)

// Scraper fetches listing pages over plain HTTP.
type Scraper struct {
	client    *http.Client
	userAgent string
}

// New creates a Scraper. A nil client gets a Chrome-fingerprinted client
// with the given timeout.
func New(client *http.Client, userAgent string, timeout time.Duration) *Scraper {
	if client == nil {
		client = engine.NewHTTPClient(timeout)
	}
	if userAgent == "" {
		userAgent = engine.DefaultUserAgent
	}
	return &Scraper{client: client, userAgent: userAgent}
}

// Fetch downloads pageURL and parses its paper records.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) ([]models.Paper, error) {
	slog.Info("fetching listing", "url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, models.NewPaperError(models.ErrCodeInvalidInput, "invalid listing url", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewPaperError(models.ErrCodeNavigation,
			fmt.Sprintf("listing returned HTTP %d", resp.StatusCode), nil)
	}

	papers, err := Parse(io.LimitReader(resp.Body, maxBody), resp.Request.URL.String())
	if err != nil {
		return nil, fetchError(err)
	}
	slog.Info("listing parsed", "url", pageURL, "papers", len(papers))
	return papers, nil
}

func fetchError(err error) *models.PaperError {
	var ue *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
		return models.NewPaperError(models.ErrCodeTimeout, "listing fetch timed out", err)
	}
	return models.NewPaperError(models.ErrCodeNavigation, "listing fetch failed", err)
}

// Parse extracts one record per article block. Articles without a title
// link are skipped. Links and images are resolved against pageURL.
func Parse(r io.Reader, pageURL string) ([]models.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("listing: parse html: %w", err)
	}
	base, _ := url.Parse(pageURL)

	papers := make([]models.Paper, 0)
	doc.Find(articleSelector).Each(func(_ int, article *goquery.Selection) {
		link := article.Find(titleSelector).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		p := models.Paper{
			Title: strings.TrimSpace(link.Text()),
			URL:   resolve(base, href),
		}
		if desc := article.Find(excerptSelector).First(); desc.Length() > 0 {
			p.Description = strings.TrimSpace(desc.Text())
		}
		if img := article.Find(imageSelector).First(); img.Length() > 0 {
			p.Image = imageURL(img, base)
		}
		papers = append(papers, p)
	})
	return papers, nil
}

// imageURL prefers src and falls back to data-src for lazy-loaded
// thumbnails whose src is empty or an inline placeholder.
func imageURL(img *goquery.Selection, base *url.URL) string {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || strings.HasPrefix(src, "data:") {
		if lazy := strings.TrimSpace(img.AttrOr("data-src", "")); lazy != "" {
			return resolve(base, lazy)
		}
	}
	if src == "" || strings.HasPrefix(src, "data:") {
		return src
	}
	return resolve(base, src)
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ByYear keeps papers whose title contains year.
func ByYear(papers []models.Paper, year int) []models.Paper {
	y := strconv.Itoa(year)
	out := make([]models.Paper, 0, len(papers))
	for _, p := range papers {
		if strings.Contains(p.Title, y) {
			out = append(out, p)
		}
	}
	return out
}

// ByType keeps papers whose title contains t, case-insensitively
// (e.g. "Marking Scheme").
func ByType(papers []models.Paper, t string) []models.Paper {
	t = strings.ToLower(t)
	out := make([]models.Paper, 0, len(papers))
	for _, p := range papers {
		if strings.Contains(strings.ToLower(p.Title), t) {
			out = append(out, p)
		}
	}
	return out
}

// Apply runs ByYear and ByType for the non-zero arguments.
func Apply(papers []models.Paper, year int, t string) []models.Paper {
	if year != 0 {
		papers = ByYear(papers, year)
	}
	if t != "" {
		papers = ByType(papers, t)
	}
	return papers
}
