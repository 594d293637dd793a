// Package finder locates the download link on a rendered paper page.
//
// A Finder holds an ordered list of strategies. Find walks them in
// priority order and returns the first usable anchor of the first strategy
// that matches anything; within a strategy, document order decides.
package finder

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Kind tags how a strategy matches elements.
type Kind int

const (
	// KindCSS matches anchors with a CSS selector alone.
	KindCSS Kind = iota
	// KindText matches anchors selected by a CSS selector whose visible
	// text also matches a regular expression.
	KindText
)

func (k Kind) String() string {
	if k == KindText {
		return "text"
	}
	return "css"
}

// Strategy is one entry of the priority list.
type Strategy struct {
	Name     string
	Kind     Kind
	Selector string
	Pattern  string // only for KindText

	matcher cascadia.Selector
	text    *regexp.Regexp
}

// CSS builds a selector-only strategy.
func CSS(name, selector string) (Strategy, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return Strategy{}, fmt.Errorf("finder: strategy %q: %w", name, err)
	}
	return Strategy{Name: name, Kind: KindCSS, Selector: selector, matcher: m}, nil
}

// Text builds a strategy matching elements of selector whose trimmed text
// matches pattern.
func Text(name, selector, pattern string) (Strategy, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return Strategy{}, fmt.Errorf("finder: strategy %q: %w", name, err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Strategy{}, fmt.Errorf("finder: strategy %q: %w", name, err)
	}
	return Strategy{Name: name, Kind: KindText, Selector: selector, Pattern: pattern, matcher: m, text: re}, nil
}

// Strategy names of the default chain.
const (
	StrategyWPFDButton   = "wpfd-button"
	StrategyPDFAnchor    = "pdf-anchor"
	StrategyAjaxDownload = "ajax-download"
	StrategyDownloadText = "download-text"
)

// DefaultStrategies returns the built-in chain, highest priority first.
func DefaultStrategies() []Strategy {
	return []Strategy{
		mustCSS(StrategyWPFDButton, `a.wpfd_downloadlink[href$=".pdf"]`),
		mustCSS(StrategyPDFAnchor, `a[href$=".pdf"]`),
		mustCSS(StrategyAjaxDownload, `a[href*="admin-ajax.php"][href*="task=file.download"]`),
		mustText(StrategyDownloadText, `a[href]`, `(?i)\bdownload\b`),
	}
}

func mustCSS(name, selector string) Strategy {
	s, err := CSS(name, selector)
	if err != nil {
		panic(err)
	}
	return s
}

func mustText(name, selector, pattern string) Strategy {
	s, err := Text(name, selector, pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Candidate is a link hypothesized to point at the paper's PDF.
type Candidate struct {
	// Href is the attribute value as written in the page.
	Href string

	// URL is Href resolved against the page URL.
	URL string

	// Strategy is the name of the strategy that produced the candidate.
	Strategy string

	// Selector and Nth locate the element again in a live page: it is the
	// Nth (0-based, document order) element matching Selector.
	Selector string
	Nth      int
}

// Finder searches a document with an ordered list of strategies.
// It holds no mutable state and is safe for concurrent use.
type Finder struct {
	strategies []Strategy
}

// New creates a Finder. With no strategies, DefaultStrategies is used.
func New(strategies ...Strategy) *Finder {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Finder{strategies: strategies}
}

// Strategies returns the priority list in order.
func (f *Finder) Strategies() []Strategy {
	out := make([]Strategy, len(f.strategies))
	copy(out, f.strategies)
	return out
}

// Find parses htmlDoc and returns the first candidate. pageURL resolves
// relative hrefs; it may be empty, in which case hrefs are kept as-is.
func (f *Finder) Find(htmlDoc io.Reader, pageURL string) (Candidate, bool, error) {
	doc, err := goquery.NewDocumentFromReader(htmlDoc)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("finder: parse html: %w", err)
	}
	var base *url.URL
	if pageURL != "" {
		if base, err = url.Parse(pageURL); err != nil {
			return Candidate{}, false, fmt.Errorf("finder: parse page url: %w", err)
		}
	}
	c, ok := f.FindDocument(doc, base)
	return c, ok, nil
}

// FindString is Find over an in-memory document.
func (f *Finder) FindString(htmlDoc, pageURL string) (Candidate, bool, error) {
	return f.Find(strings.NewReader(htmlDoc), pageURL)
}

// FindDocument runs the strategy chain over an already parsed document.
func (f *Finder) FindDocument(doc *goquery.Document, base *url.URL) (Candidate, bool) {
	for _, s := range f.strategies {
		if c, ok := s.first(doc, base); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

// first returns the first usable match of s in document order.
func (s Strategy) first(doc *goquery.Document, base *url.URL) (Candidate, bool) {
	var (
		found Candidate
		ok    bool
	)
	doc.FindMatcher(s.matcher).EachWithBreak(func(i int, el *goquery.Selection) bool {
		href, _ := el.Attr("href")
		href = strings.TrimSpace(href)
		if !usableHref(href) {
			return true
		}
		if s.Kind == KindText && !s.text.MatchString(strings.TrimSpace(el.Text())) {
			return true
		}
		found = Candidate{
			Href:     href,
			URL:      resolve(base, href),
			Strategy: s.Name,
			Selector: s.Selector,
			Nth:      i,
		}
		ok = true
		return false
	})
	return found, ok
}

// usableHref rejects anchors that cannot lead to a document.
func usableHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	return !strings.HasPrefix(lower, "javascript:") && !strings.HasPrefix(lower, "mailto:")
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
