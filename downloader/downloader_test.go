package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/finder"
	"github.com/use-agent/pastpapers/models"
	"github.com/use-agent/pastpapers/store"
)

type fakeBrowser struct {
	pages    map[string]string
	visited  []string
	delay    time.Duration
	starts   []time.Time
	ends     []time.Time
	capture  func(ctx context.Context, req *engine.Request) (*engine.Document, error)
	last     func(ctx context.Context, req *engine.Request) (*engine.Document, error)
	requests []*engine.Request
}

func (b *fakeBrowser) Visit(ctx context.Context, pageURL string) (*models.PageSnapshot, error) {
	b.visited = append(b.visited, pageURL)
	b.starts = append(b.starts, time.Now())
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	defer func() { b.ends = append(b.ends, time.Now()) }()
	html, ok := b.pages[pageURL]
	if !ok {
		return nil, models.NewPaperError(models.ErrCodeNavigation, "navigation failed", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	}
	return &models.PageSnapshot{HTML: html, FinalURL: pageURL}, nil
}

func (b *fakeBrowser) Strategies() []engine.Strategy {
	wrap := func(fn func(context.Context, *engine.Request) (*engine.Document, error)) engine.BrowserFunc {
		return func(ctx context.Context, req *engine.Request) (*engine.Document, error) {
			b.requests = append(b.requests, req)
			if fn == nil {
				return nil, errors.New("no pdf response")
			}
			return fn(ctx, req)
		}
	}
	return []engine.Strategy{
		engine.NewBrowserStrategy("click-capture", engine.ClickCapture, wrap(b.capture)),
		engine.NewBrowserStrategy("last-resort", engine.LastResort, wrap(b.last)),
	}
}

func pdfServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/paper.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 direct"))
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>login</html>"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDownloader(t *testing.T, b Browser, client *http.Client) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DownloadConfig{DefaultMedium: "Sinhala"}
	return New(b, engine.NewDirect(client, "", 0), finder.New(finder.DefaultStrategies()...), st, cfg), dir
}

func files(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

const royal = "https://pastpapers.wiki/royal-college-physics-1st-term-test-paper-2023-grade-13/"

func TestRun_DirectFetchSavesNamedFile(t *testing.T) {
	srv := pdfServer(t)
	b := &fakeBrowser{pages: map[string]string{
		royal: fmt.Sprintf(`<a class="wpfd_downloadlink" href="%s/files/paper.pdf">Download</a>`, srv.URL),
	}}
	d, dir := newDownloader(t, b, srv.Client())

	sum := d.Run(context.Background(), []string{royal})
	if sum.Saved != 1 || sum.Total != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	o := sum.Outcomes[0]
	if o.State != "SAVED" || o.Strategy != "direct" || o.Finder != finder.StrategyWPFDButton {
		t.Errorf("outcome = %+v", o)
	}
	want := "Royal College - 2023 Grade 13 Physics 1st Term - Sinhala.pdf"
	if filepath.Base(o.Path) != want {
		t.Errorf("path = %q, want %q", o.Path, want)
	}
	data, err := os.ReadFile(filepath.Join(dir, want))
	if err != nil || string(data) != "%PDF-1.4 direct" {
		t.Errorf("saved data = %q, %v", data, err)
	}
	if len(b.requests) != 0 {
		t.Error("browser strategies ran after direct success")
	}
}

func TestRun_NoCandidateSkips(t *testing.T) {
	srv := pdfServer(t)
	other := "https://pastpapers.wiki/empty-page/"
	b := &fakeBrowser{pages: map[string]string{
		other: `<p>nothing to download</p>`,
		royal: fmt.Sprintf(`<a href="%s/files/paper.pdf">paper</a>`, srv.URL),
	}}
	d, dir := newDownloader(t, b, srv.Client())

	sum := d.Run(context.Background(), []string{other, royal})
	if sum.Total != 2 || sum.Skipped != 1 || sum.Saved != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	skipped := sum.Outcomes[0]
	if skipped.State != "NOT_ATTEMPTED" || skipped.Error == nil || skipped.Error.Code != models.ErrCodeNoCandidate {
		t.Errorf("skipped outcome = %+v", skipped)
	}
	if len(skipped.Attempts) != 0 {
		t.Error("strategies attempted without a candidate")
	}
	if got := files(t, dir); len(got) != 1 {
		t.Errorf("files = %v, want exactly one", got)
	}
}

func TestRun_FailedAcquisitionLeavesNoFile(t *testing.T) {
	srv := pdfServer(t)
	b := &fakeBrowser{pages: map[string]string{
		royal: fmt.Sprintf(`<a href="%s/files/login.pdf">paper</a>`, srv.URL),
	}}
	d, dir := newDownloader(t, b, srv.Client())

	sum := d.Run(context.Background(), []string{royal})
	o := sum.Outcomes[0]
	if o.State != "FAILED" || sum.Failed != 1 {
		t.Fatalf("outcome = %+v", o)
	}
	if len(o.Attempts) != 3 {
		t.Fatalf("attempts = %+v, want all three strategies", o.Attempts)
	}
	if o.Attempts[0].Reason != string(engine.ReasonNotPDF) {
		t.Errorf("direct reason = %q, want not_pdf", o.Attempts[0].Reason)
	}
	if o.Error == nil || o.Error.Code != models.ErrCodeAcquisition {
		t.Errorf("error = %+v, want ACQUISITION_FAILED", o.Error)
	}
	if got := files(t, dir); len(got) != 0 {
		t.Errorf("failed acquisition left files: %v", got)
	}
}

func TestRun_ClickCaptureFallback(t *testing.T) {
	page := "https://pastpapers.wiki/ananda-college-physics-1st-term-test-paper-2023-grade-13/"
	b := &fakeBrowser{
		pages: map[string]string{
			page: `<a href="/wp-admin/admin-ajax.php?juwpfisadmin=false&task=file.download&id=9">Get</a>`,
		},
		capture: func(ctx context.Context, req *engine.Request) (*engine.Document, error) {
			return &engine.Document{Data: []byte("%PDF-1.7 captured"), ContentType: "application/pdf"}, nil
		},
	}
	d, _ := newDownloader(t, b, http.DefaultClient)

	o := d.Process(context.Background(), 1, page)
	if o.State != "SAVED" || o.Strategy != "click-capture" || o.Finder != finder.StrategyAjaxDownload {
		t.Fatalf("outcome = %+v", o)
	}
	if o.Attempts[0].Reason != string(engine.ReasonNotApplicable) {
		t.Errorf("direct reason = %q, want not_applicable", o.Attempts[0].Reason)
	}
	req := b.requests[0]
	if req.Selector == "" || req.Nth != 0 || req.PageURL != page {
		t.Errorf("browser request = %+v", req)
	}
}

func TestRun_NavigationFailureContinues(t *testing.T) {
	srv := pdfServer(t)
	b := &fakeBrowser{pages: map[string]string{
		royal: fmt.Sprintf(`<a href="%s/files/paper.pdf">paper</a>`, srv.URL),
	}}
	d, _ := newDownloader(t, b, srv.Client())

	sum := d.Run(context.Background(), []string{"https://unreachable.invalid/", royal})
	if sum.Failed != 1 || sum.Saved != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if code := sum.Outcomes[0].Error.Code; code != models.ErrCodeNavigation {
		t.Errorf("code = %s, want NAVIGATION_FAILED", code)
	}
}

func TestRun_CancelledStops(t *testing.T) {
	b := &fakeBrowser{pages: map[string]string{}}
	d, _ := newDownloader(t, b, http.DefaultClient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum := d.Run(ctx, []string{royal, royal})
	if sum.Total != 0 || len(b.visited) != 0 {
		t.Errorf("cancelled run visited %v, summary %+v", b.visited, sum)
	}
}

func TestString(t *testing.T) {
	s := &models.RunSummary{Total: 4, Saved: 2, Failed: 1, Skipped: 1}
	if got := String(s); got != "4 pages: 2 saved, 1 failed, 1 skipped" {
		t.Errorf("String() = %q", got)
	}
}

func TestRun_PauseBetweenPages(t *testing.T) {
	const delay = 200 * time.Millisecond
	b := &fakeBrowser{
		pages: map[string]string{
			"https://pastpapers.wiki/a/": `<p>none</p>`,
			"https://pastpapers.wiki/b/": `<p>none</p>`,
			"https://pastpapers.wiki/c/": `<p>none</p>`,
		},
		delay: 300 * time.Millisecond,
	}
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DownloadConfig{PoliteDelay: delay}
	d := New(b, engine.NewDirect(nil, "", 0), finder.New(finder.DefaultStrategies()...), st, cfg)

	sum := d.Run(context.Background(), []string{"https://pastpapers.wiki/a/", "https://pastpapers.wiki/b/", "https://pastpapers.wiki/c/"})
	if sum.Total != 3 {
		t.Fatalf("summary = %+v", sum)
	}
	for i := 1; i < len(b.starts); i++ {
		if gap := b.starts[i].Sub(b.ends[i-1]); gap < delay {
			t.Errorf("gap before page %d = %v, want >= %v", i+1, gap, delay)
		}
	}
}
