package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/filter"
	"github.com/use-agent/pastpapers/models"
)

// Session owns one browser and the single page reused across paper pages.
// It is not safe for concurrent use; the downloader drives it sequentially.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter

	browserCfg  config.BrowserConfig
	downloadCfg config.DownloadConfig
	filter      *filter.Filter
	client      *http.Client

	capture    pdfCapture
	currentURL atomic.Value // string

	stopPopups context.CancelFunc
	closeOnce  sync.Once
	startTime  time.Time
}

// NewSession launches a browser, opens the working page and installs the
// resource filter and popup closer on it.
func NewSession(browserCfg config.BrowserConfig, downloadCfg config.DownloadConfig, flt *filter.Filter) (*Session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if browserCfg.ViewportWidth > 0 && browserCfg.ViewportHeight > 0 {
		l.Set(flags.Flag("window-size"), strconv.Itoa(browserCfg.ViewportWidth)+","+strconv.Itoa(browserCfg.ViewportHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPaperError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPaperError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s := &Session{
		browser:     browser,
		browserCfg:  browserCfg,
		downloadCfg: downloadCfg,
		filter:      flt,
		client:      engine.NewHTTPClient(0),
		startTime:   time.Now(),
	}
	s.currentURL.Store("")

	page, err := s.newPage()
	if err != nil {
		_ = browser.Close()
		return nil, models.NewPaperError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	s.page = page
	s.router = setupHijack(page, flt, s.CurrentURL, &s.capture, s.client)
	s.stopPopups = s.closePopups(page.TargetID)

	return s, nil
}

// newPage opens a tab with stealth, viewport, user agent and extra headers
// applied. Hijacking is left to the caller.
func (s *Session) newPage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	if s.browserCfg.ViewportWidth > 0 && s.browserCfg.ViewportHeight > 0 {
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.browserCfg.ViewportWidth,
			Height:            s.browserCfg.ViewportHeight,
			DeviceScaleFactor: 1,
		})
	}
	if s.browserCfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.browserCfg.UserAgent})
	}
	if headers := parseHeaders(s.browserCfg.ExtraHeaders); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}
	return page, nil
}

// closePopups closes every tab opened by the working page (window.open,
// target=_blank ad links). It returns a func that stops the listener.
func (s *Session) closePopups(opener proto.TargetTargetID) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	b := s.browser.Context(ctx)

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(b); err != nil {
		slog.Warn("popup closer disabled", "error", err)
		return cancel
	}

	wait := b.EachEvent(func(e *proto.TargetTargetCreated) {
		info := e.TargetInfo
		if info.Type != proto.TargetTargetInfoTypePage || info.OpenerID != opener {
			return
		}
		slog.Info("popup detected, closing it", "url", info.URL)
		go func() {
			_, _ = proto.TargetCloseTarget{TargetID: info.TargetID}.Call(s.browser)
		}()
	})
	go wait()

	return cancel
}

// CurrentURL returns the paper page the working page was last sent to.
func (s *Session) CurrentURL() string {
	v, _ := s.currentURL.Load().(string)
	return v
}

// Uptime reports how long the session has been running.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Strategies returns the browser-backed acquisition strategies in order.
func (s *Session) Strategies() []engine.Strategy {
	return []engine.Strategy{
		engine.NewBrowserStrategy("click-capture", engine.ClickCapture, s.ClickCapture),
		engine.NewBrowserStrategy("last-resort", engine.LastResort, s.LastResort),
	}
}

// Close stops the hijack router and kills the browser process. Safe to
// call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		slog.Info("session shutting down: closing browser")
		if s.stopPopups != nil {
			s.stopPopups()
		}
		if s.router != nil {
			_ = s.router.Stop()
		}
		if err := s.browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
		slog.Info("session shutdown complete")
	})
}

// parseHeaders turns "Key: Value" entries into a map, skipping malformed ones.
func parseHeaders(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		m[k] = strings.TrimSpace(v)
	}
	return m
}
