package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/models"
	"github.com/ysmood/gson"
)

// Visit loads a paper page in the working page and returns the rendered
// DOM. A failed navigation gets exactly one reload before giving up.
//
// Each navigation attempt runs under its own NavigationTimeout so that a
// slow first load still leaves time for the reload.
func (s *Session) Visit(ctx context.Context, pageURL string) (*models.PageSnapshot, error) {
	s.currentURL.Store(pageURL)

	err := s.navigate(ctx, s.page, pageURL)
	if err != nil && ctx.Err() == nil {
		slog.Warn("navigation failed, reloading once", "url", pageURL, "error", err)
		err = s.navigate(ctx, s.page, pageURL)
	}
	if err != nil {
		return nil, categorizeError(err, "navigation to paper page failed")
	}

	p := s.page.Context(ctx)
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = pageURL
	}

	return &models.PageSnapshot{
		HTML:     rawHTML,
		FinalURL: finalURL,
		Title:    evalStringOrEmpty(p, `() => document.title`),
	}, nil
}

// navigate loads url and waits for the DOM to settle.
//
// WaitRequestIdle uses the Fetch domain, which conflicts with
// HijackRequests, so a stable DOM stands in for network idle.
func (s *Session) navigate(ctx context.Context, page *rod.Page, url string) error {
	if s.downloadCfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.downloadCfg.NavigationTimeout)
		defer cancel()
	}
	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}
	return nil
}

// ClickCapture clicks the candidate in the working page and waits for any
// response that carries a PDF.
func (s *Session) ClickCapture(ctx context.Context, req *engine.Request) (*engine.Document, error) {
	ch := s.capture.arm()
	defer s.capture.disarm()

	p := s.page.Context(ctx)
	el, err := nthElement(p, req.Selector, req.Nth)
	if err != nil {
		return nil, err
	}
	if err := click(el); err != nil {
		return nil, fmt.Errorf("click candidate: %w", err)
	}

	select {
	case doc := <-ch:
		return doc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for pdf response: %w", ctx.Err())
	}
}

// LastResort opens a fresh tab on the same browser, loads the paper page,
// clicks the candidate and waits for the browser's native download. The
// file is read back from a scratch directory that is removed afterwards.
func (s *Session) LastResort(ctx context.Context, req *engine.Request) (*engine.Document, error) {
	dir, err := os.MkdirTemp("", "pastpapers-dl-*")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	page, err := s.newPage()
	if err != nil {
		return nil, models.NewPaperError(models.ErrCodeBrowserCrash, "failed to open fresh page", err)
	}
	defer func() { _ = page.Close() }()

	router := setupHijack(page, s.filter, func() string { return req.PageURL }, nil, s.client)
	defer func() { _ = router.Stop() }()

	if err := s.navigate(ctx, page, req.PageURL); err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	p := page.Context(ctx)
	el, err := nthElement(p, req.Selector, req.Nth)
	if err != nil {
		return nil, err
	}

	wait := s.browser.Context(ctx).WaitDownload(dir)
	if err := click(el); err != nil {
		return nil, fmt.Errorf("click candidate: %w", err)
	}
	info := wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("wait for download: %w", ctxErr)
	}
	if info == nil {
		return nil, errors.New("download did not start")
	}

	data, err := os.ReadFile(filepath.Join(dir, info.GUID))
	if err != nil {
		return nil, fmt.Errorf("read downloaded file: %w", err)
	}
	if !engine.IsPDF("", data) {
		return nil, fmt.Errorf("download %q: %w", info.SuggestedFilename, engine.ErrNotPDF)
	}

	return &engine.Document{
		Data:              data,
		SuggestedFilename: info.SuggestedFilename,
		SourceURL:         info.URL,
	}, nil
}

// nthElement returns the nth element matching selector.
func nthElement(p *rod.Page, selector string, nth int) (*rod.Element, error) {
	els, err := p.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if nth < 0 || nth >= len(els) {
		return nil, fmt.Errorf("%q match %d of %d: %w", selector, nth, len(els), engine.ErrNoElement)
	}
	return els[nth], nil
}

// click tries a real mouse click and falls back to a DOM click when the
// element is covered or not interactable.
func click(el *rod.Element) error {
	if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	_, err := el.Eval(`() => this.click()`)
	return err
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed PaperErrors so callers can
// tell timeouts from other failures.
func categorizeError(err error, msg string) *models.PaperError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPaperError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewPaperError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewPaperError(models.ErrCodeNavigation, msg, err)
	}
}
