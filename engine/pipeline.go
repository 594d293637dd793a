package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline runs acquisition strategies strictly in order. The first
// success moves the machine to Saved; exhaustion moves it to Failed.
type Pipeline struct {
	strategies []Strategy
	timeouts   []time.Duration
}

// NewPipeline creates a Pipeline. strategies[i] runs under timeouts[i];
// a missing or zero timeout means only the parent deadline applies.
func NewPipeline(strategies []Strategy, timeouts []time.Duration) *Pipeline {
	t := make([]time.Duration, len(strategies))
	copy(t, timeouts)
	return &Pipeline{strategies: strategies, timeouts: t}
}

// Strategies returns the configured strategy names in order.
func (p *Pipeline) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}

// Result is the terminal state of one pipeline run.
type Result struct {
	State    State
	Document *Document
	Attempts []Attempt
	Err      error
}

// Run acquires req. It never returns a nil Result. When ctx is cancelled
// mid-run, remaining strategies are not attempted.
func (p *Pipeline) Run(ctx context.Context, req *Request) *Result {
	res := &Result{State: NotAttempted}
	var lastErr error

	for i, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		res.State = s.State()
		doc, elapsed, err := p.attempt(ctx, s, p.timeouts[i], req)
		if err == nil {
			doc.Strategy = s.Name()
			res.Attempts = append(res.Attempts, Attempt{
				Strategy: s.Name(),
				State:    s.State(),
				Duration: elapsed,
			})
			res.State = Saved
			res.Document = doc
			slog.Info("acquired", "strategy", s.Name(), "url", req.DocumentURL, "bytes", len(doc.Data))
			return res
		}

		reason := ReasonOf(err)
		res.Attempts = append(res.Attempts, Attempt{
			Strategy: s.Name(),
			State:    s.State(),
			Reason:   reason,
			Err:      err,
			Duration: elapsed,
		})
		if reason == ReasonNotApplicable {
			slog.Debug("strategy skipped", "strategy", s.Name(), "url", req.DocumentURL)
			continue
		}
		slog.Info("strategy failed", "strategy", s.Name(), "url", req.DocumentURL, "reason", reason, "error", err)
		lastErr = err
	}

	res.State = Failed
	if lastErr == nil {
		lastErr = errors.New("no applicable strategy")
	}
	res.Err = fmt.Errorf("engine: all strategies failed for %s: %w", req.DocumentURL, lastErr)
	return res
}

func (p *Pipeline) attempt(ctx context.Context, s Strategy, timeout time.Duration, req *Request) (*Document, time.Duration, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	doc, err := s.Acquire(ctx, req)
	elapsed := time.Since(start)
	if err == nil && doc == nil {
		err = fmt.Errorf("%s: no document", s.Name())
	}
	if err != nil && ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return doc, elapsed, err
}
