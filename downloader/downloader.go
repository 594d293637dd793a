// Package downloader walks an ordered list of paper pages and saves the
// PDF behind each one.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/finder"
	"github.com/use-agent/pastpapers/models"
	"github.com/use-agent/pastpapers/naming"
	"github.com/use-agent/pastpapers/store"
)

// Browser is the live page the downloader drives. scraper.Session
// implements it.
type Browser interface {
	// Visit loads pageURL and returns the rendered DOM.
	Visit(ctx context.Context, pageURL string) (*models.PageSnapshot, error)

	// Strategies returns the browser-backed acquisition strategies, in
	// the order they should run after the direct fetch.
	Strategies() []engine.Strategy
}

// Downloader processes input URLs strictly one at a time.
type Downloader struct {
	browser  Browser
	finder   *finder.Finder
	pipeline *engine.Pipeline
	policy   *naming.Policy
	store    *store.Store
	limiter  *rate.Limiter
}

// New wires a Downloader. direct runs first, followed by the browser's
// strategies; each gets its configured timeout.
func New(b Browser, direct engine.Strategy, f *finder.Finder, st *store.Store, cfg config.DownloadConfig) *Downloader {
	strategies := append([]engine.Strategy{direct}, b.Strategies()...)
	timeouts := []time.Duration{cfg.DirectTimeout, cfg.CaptureTimeout, cfg.LastResortTimeout}

	limit := rate.Inf
	if cfg.PoliteDelay > 0 {
		limit = rate.Every(cfg.PoliteDelay)
	}

	return &Downloader{
		browser:  b,
		finder:   f,
		pipeline: engine.NewPipeline(strategies, timeouts),
		policy:   naming.NewPolicy(cfg.DefaultMedium),
		store:    st,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Run processes urls in order and returns one outcome per URL attempted.
// A failure on one URL never stops the run; cancelling ctx does.
func (d *Downloader) Run(ctx context.Context, urls []string) *models.RunSummary {
	summary := &models.RunSummary{Outcomes: make([]models.Outcome, 0, len(urls))}

	for i, pageURL := range urls {
		if err := d.limiter.Wait(ctx); err != nil {
			slog.Warn("run interrupted", "processed", i, "total", len(urls))
			break
		}

		slog.Info("visiting", "index", i+1, "total", len(urls), "url", pageURL)
		o := d.Process(ctx, i+1, pageURL)
		summary.Add(o)
		// Take the token that refilled during Process so the next Wait
		// pauses at least PoliteDelay after this page finished.
		d.limiter.ReserveN(time.Now(), 1)

		if ctx.Err() != nil {
			slog.Warn("run interrupted", "processed", i+1, "total", len(urls))
			break
		}
	}

	slog.Info("run complete",
		"total", summary.Total,
		"saved", summary.Saved,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"dir", d.store.Dir(),
	)
	return summary
}

// Process handles a single paper page: visit, find a candidate, acquire,
// name and save. index is the 1-based input position.
func (d *Downloader) Process(ctx context.Context, index int, pageURL string) models.Outcome {
	o := models.Outcome{
		Index: index,
		URL:   pageURL,
		State: engine.NotAttempted.String(),
	}

	snap, err := d.browser.Visit(ctx, pageURL)
	if err != nil {
		return d.fail(o, err)
	}

	base := snap.FinalURL
	if base == "" {
		base = pageURL
	}
	cand, found, err := d.finder.FindString(snap.HTML, base)
	if err != nil {
		return d.fail(o, models.NewPaperError(models.ErrCodeInternal, "failed to parse page", err))
	}
	if !found {
		slog.Info("no download link found, skipping", "url", pageURL)
		o.Error = &models.ErrorDetail{Code: models.ErrCodeNoCandidate, Message: "no download link found"}
		return o
	}
	o.Candidate = cand.URL
	o.Finder = cand.Strategy
	slog.Info("download link found", "strategy", cand.Strategy, "href", cand.URL)

	res := d.pipeline.Run(ctx, &engine.Request{
		PageURL:     base,
		DocumentURL: cand.URL,
		Selector:    cand.Selector,
		Nth:         cand.Nth,
	})
	o.Attempts = toAttempts(res.Attempts)
	if res.State != engine.Saved {
		return d.fail(o, acquisitionError(res))
	}

	doc := res.Document
	name := d.policy.Name(naming.Input{
		PageURL:            pageURL,
		ContentDisposition: doc.ContentDisposition,
		SuggestedFilename:  doc.SuggestedFilename,
		DocumentURL:        firstNonEmpty(doc.SourceURL, cand.URL),
		Index:              index,
	})
	path, err := d.store.Save(name, doc.Data)
	if err != nil {
		return d.fail(o, err)
	}

	o.State = engine.Saved.String()
	o.Strategy = doc.Strategy
	o.Path = path
	o.Bytes = len(doc.Data)
	slog.Info("saved", "path", path, "strategy", doc.Strategy, "bytes", len(doc.Data))
	return o
}

// fail marks o as FAILED and logs the error as timeout or other.
func (d *Downloader) fail(o models.Outcome, err error) models.Outcome {
	o.State = engine.Failed.String()
	o.Error = &models.ErrorDetail{Code: models.CodeOf(err), Message: err.Error()}
	slog.Warn("paper failed", "url", o.URL, "kind", models.ErrorKind(err), "error", err)
	return o
}

// acquisitionError maps the last applicable attempt onto an error code.
func acquisitionError(res *engine.Result) error {
	code := models.ErrCodeAcquisition
	if errors.Is(res.Err, context.Canceled) {
		code = models.ErrCodeTimeout
	} else if a, ok := lastApplicable(res.Attempts); ok {
		switch a.Reason {
		case engine.ReasonTimeout:
			code = models.ErrCodeTimeout
		case engine.ReasonNotPDF:
			code = models.ErrCodeNotPDF
		}
	}
	return models.NewPaperError(code, "all acquisition strategies failed", res.Err)
}

func lastApplicable(attempts []engine.Attempt) (engine.Attempt, bool) {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Reason != engine.ReasonNotApplicable {
			return attempts[i], true
		}
	}
	return engine.Attempt{}, false
}

func toAttempts(in []engine.Attempt) []models.Attempt {
	out := make([]models.Attempt, 0, len(in))
	for _, a := range in {
		m := models.Attempt{
			Strategy:   a.Strategy,
			Reason:     string(a.Reason),
			DurationMs: a.Duration.Milliseconds(),
		}
		if a.Err != nil {
			m.Error = a.Err.Error()
		}
		out = append(out, m)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// String renders a one-line summary for CLI output.
func String(s *models.RunSummary) string {
	return fmt.Sprintf("%d pages: %d saved, %d failed, %d skipped", s.Total, s.Saved, s.Failed, s.Skipped)
}
