package engine

import (
	"context"
	"fmt"
)

// BrowserFunc performs an acquisition inside the browser session. It is
// injected from the session owner to avoid an import cycle (engine/ ->
// scraper/).
type BrowserFunc func(ctx context.Context, req *Request) (*Document, error)

// BrowserStrategy delegates to a BrowserFunc. It backs both the
// click-capture and the last-resort strategies.
type BrowserStrategy struct {
	name  string
	state State
	fn    BrowserFunc
}

// NewBrowserStrategy creates a BrowserStrategy that reports state while
// fn runs.
func NewBrowserStrategy(name string, state State, fn BrowserFunc) *BrowserStrategy {
	return &BrowserStrategy{name: name, state: state, fn: fn}
}

func (s *BrowserStrategy) Name() string { return s.name }

func (s *BrowserStrategy) State() State { return s.state }

func (s *BrowserStrategy) Acquire(ctx context.Context, req *Request) (*Document, error) {
	if s.fn == nil {
		return nil, fmt.Errorf("%s: browser func not configured", s.name)
	}
	doc, err := s.fn(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s: no document", s.name)
	}
	return doc, nil
}
