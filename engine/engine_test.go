package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeStrategy struct {
	name  string
	state State
	fn    func(ctx context.Context) (*Document, error)
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }
func (f *fakeStrategy) State() State { return f.state }
func (f *fakeStrategy) Acquire(ctx context.Context, _ *Request) (*Document, error) {
	f.calls++
	return f.fn(ctx)
}

func ok(ctx context.Context) (*Document, error) {
	return &Document{Data: []byte("%PDF-1.4")}, nil
}

func fail(err error) func(context.Context) (*Document, error) {
	return func(context.Context) (*Document, error) { return nil, err }
}

func TestState_String(t *testing.T) {
	want := map[State]string{
		NotAttempted: "NOT_ATTEMPTED",
		DirectFetch:  "DIRECT_FETCH",
		ClickCapture: "CLICK_CAPTURE",
		LastResort:   "LAST_RESORT",
		Saved:        "SAVED",
		Failed:       "FAILED",
	}
	for s, w := range want {
		if s.String() != w {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), w)
		}
	}
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{ErrNotApplicable, ReasonNotApplicable},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ReasonTimeout},
		{fmt.Errorf("direct: %w", ErrNotPDF), ReasonNotPDF},
		{ErrNoElement, ReasonNoElement},
		{errors.New("boom"), ReasonError},
	}
	for _, tt := range tests {
		if got := ReasonOf(tt.err); got != tt.want {
			t.Errorf("ReasonOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		ct   string
		data string
		want bool
	}{
		{"application/pdf", "", true},
		{"application/pdf; charset=binary", "x", true},
		{"application/octet-stream", "%PDF-1.7 ...", true},
		{"", "%PDF-1.3", true},
		{"text/html; charset=utf-8", "<html>", false},
		{"application/octet-stream", "PK\x03\x04", false},
	}
	for _, tt := range tests {
		if got := IsPDF(tt.ct, []byte(tt.data)); got != tt.want {
			t.Errorf("IsPDF(%q, %q) = %v, want %v", tt.ct, tt.data, got, tt.want)
		}
	}
}

func TestHasPDFPath(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a/paper.pdf":         true,
		"https://example.com/a/PAPER.PDF":         true,
		"https://example.com/a/paper.pdf?dl=1":    true,
		"https://example.com/wp-admin/admin-ajax": false,
		"https://example.com/paper.pdf.html":      false,
		"":                                        false,
	}
	for u, want := range tests {
		if got := HasPDFPath(u); got != want {
			t.Errorf("HasPDFPath(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestPipeline_StopsOnFirstSuccess(t *testing.T) {
	direct := &fakeStrategy{name: "direct", state: DirectFetch, fn: fail(ErrNotApplicable)}
	click := &fakeStrategy{name: "click-capture", state: ClickCapture, fn: ok}
	last := &fakeStrategy{name: "last-resort", state: LastResort, fn: ok}

	p := NewPipeline([]Strategy{direct, click, last}, nil)
	res := p.Run(context.Background(), &Request{DocumentURL: "https://example.com/x"})

	if res.State != Saved {
		t.Fatalf("state = %s, want SAVED", res.State)
	}
	if res.Document == nil || res.Document.Strategy != "click-capture" {
		t.Fatalf("document strategy = %+v, want click-capture", res.Document)
	}
	if last.calls != 0 {
		t.Errorf("last resort ran %d times after success", last.calls)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(res.Attempts))
	}
	if res.Attempts[0].Reason != ReasonNotApplicable {
		t.Errorf("first attempt reason = %q, want not_applicable", res.Attempts[0].Reason)
	}
}

func TestPipeline_ExhaustionFails(t *testing.T) {
	s1 := &fakeStrategy{name: "a", state: DirectFetch, fn: fail(ErrNotPDF)}
	s2 := &fakeStrategy{name: "b", state: ClickCapture, fn: fail(ErrNoElement)}

	res := NewPipeline([]Strategy{s1, s2}, nil).Run(context.Background(), &Request{DocumentURL: "u"})
	if res.State != Failed {
		t.Fatalf("state = %s, want FAILED", res.State)
	}
	if res.Document != nil {
		t.Error("failed run returned a document")
	}
	if !errors.Is(res.Err, ErrNoElement) {
		t.Errorf("err = %v, want wrapping ErrNoElement", res.Err)
	}
	if s1.calls != 1 || s2.calls != 1 {
		t.Errorf("calls = %d,%d, want 1,1", s1.calls, s2.calls)
	}
}

func TestPipeline_TimeoutIsLocal(t *testing.T) {
	slow := &fakeStrategy{name: "slow", state: ClickCapture, fn: func(ctx context.Context) (*Document, error) {
		<-ctx.Done()
		return nil, errors.New("wait for pdf response: context done")
	}}
	next := &fakeStrategy{name: "next", state: LastResort, fn: ok}

	p := NewPipeline([]Strategy{slow, next}, []time.Duration{20 * time.Millisecond, time.Second})
	res := p.Run(context.Background(), &Request{DocumentURL: "u"})

	if res.State != Saved {
		t.Fatalf("state = %s, want SAVED", res.State)
	}
	if res.Attempts[0].Reason != ReasonTimeout {
		t.Errorf("slow attempt reason = %q, want timeout", res.Attempts[0].Reason)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	s := &fakeStrategy{name: "a", state: DirectFetch, fn: ok}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewPipeline([]Strategy{s}, nil).Run(ctx, &Request{DocumentURL: "u"})
	if res.State != Failed {
		t.Fatalf("state = %s, want FAILED", res.State)
	}
	if s.calls != 0 {
		t.Error("strategy ran on a cancelled context")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", res.Err)
	}
}

func TestPipeline_NilDocumentIsFailure(t *testing.T) {
	s := &fakeStrategy{name: "a", state: DirectFetch, fn: func(context.Context) (*Document, error) { return nil, nil }}
	res := NewPipeline([]Strategy{s}, nil).Run(context.Background(), &Request{DocumentURL: "u"})
	if res.State != Failed {
		t.Fatalf("state = %s, want FAILED", res.State)
	}
}

func TestBrowserStrategy(t *testing.T) {
	s := NewBrowserStrategy("click-capture", ClickCapture, func(ctx context.Context, req *Request) (*Document, error) {
		return nil, ErrNoElement
	})
	if s.Name() != "click-capture" || s.State() != ClickCapture {
		t.Fatalf("unexpected identity %s/%s", s.Name(), s.State())
	}
	_, err := s.Acquire(context.Background(), &Request{})
	if !errors.Is(err, ErrNoElement) {
		t.Errorf("err = %v, want ErrNoElement", err)
	}

	empty := NewBrowserStrategy("x", LastResort, nil)
	if _, err := empty.Acquire(context.Background(), &Request{}); err == nil {
		t.Error("expected error from unconfigured strategy")
	}
}

func TestDirect_FetchesPDF(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="paper.pdf"`)
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer srv.Close()

	d := NewDirect(srv.Client(), "", 0)
	doc, err := d.Acquire(context.Background(), &Request{
		PageURL:     "https://pastpapers.example/page/",
		DocumentURL: srv.URL + "/files/paper.pdf",
	})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if string(doc.Data) != "%PDF-1.4 body" {
		t.Errorf("data = %q", doc.Data)
	}
	if !strings.Contains(doc.ContentDisposition, "paper.pdf") {
		t.Errorf("content-disposition = %q", doc.ContentDisposition)
	}
	if gotReferer != "https://pastpapers.example/page/" {
		t.Errorf("referer = %q", gotReferer)
	}
}

func TestDirect_RejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	_, err := NewDirect(srv.Client(), "", 0).Acquire(context.Background(), &Request{DocumentURL: srv.URL + "/a.pdf"})
	if ReasonOf(err) != ReasonNotPDF {
		t.Errorf("reason = %q (err %v), want not_pdf", ReasonOf(err), err)
	}
}

func TestDirect_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewDirect(srv.Client(), "", 0).Acquire(context.Background(), &Request{DocumentURL: srv.URL + "/a.pdf"})
	if err == nil || ReasonOf(err) != ReasonError {
		t.Errorf("err = %v, want generic error", err)
	}
}

func TestDirect_SizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-" + strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := NewDirect(srv.Client(), "", 16).Acquire(context.Background(), &Request{DocumentURL: srv.URL + "/a.pdf"})
	if err == nil {
		t.Error("expected size cap error")
	}
}

func TestDirect_NotApplicable(t *testing.T) {
	d := NewDirect(http.DefaultClient, "", 0)
	_, err := d.Acquire(context.Background(), &Request{DocumentURL: "https://example.com/wp-admin/admin-ajax.php?task=file.download"})
	if !errors.Is(err, ErrNotApplicable) {
		t.Errorf("err = %v, want ErrNotApplicable", err)
	}
}
