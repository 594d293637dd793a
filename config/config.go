package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Download DownloadConfig
	Listing  ListingConfig
	Filter   FilterConfig
	Cache    CacheConfig
	Webhook  WebhookConfig
	Log      LogConfig
}

// ServerConfig controls the HTTP server used by the serve command.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to Chromium as --proxy-server.
	Proxy string

	// UserAgent overrides the browser user agent.
	UserAgent string

	// Stealth injects go-rod/stealth evasions into every page.
	Stealth bool // default: true

	// ViewportWidth and ViewportHeight size the emulated window.
	ViewportWidth  int // default: 1280
	ViewportHeight int // default: 800

	// ExtraHeaders are sent with every browser request ("Key: Value" pairs).
	ExtraHeaders []string
}

// DownloadConfig controls the paper downloader.
type DownloadConfig struct {
	// OutputDir receives the saved PDFs.
	OutputDir string // default: "physics_2023_grade13_papers"

	// NavigationTimeout bounds loading a paper page (including the reload).
	NavigationTimeout time.Duration // default: 45s

	// DirectTimeout bounds the direct .pdf fetch strategy.
	DirectTimeout time.Duration // default: 45s

	// CaptureTimeout bounds the click-and-intercept strategy.
	CaptureTimeout time.Duration // default: 45s

	// LastResortTimeout bounds the fresh-page native download strategy.
	LastResortTimeout time.Duration // default: 60s

	// PoliteDelay is the fixed pause between consecutive input URLs.
	PoliteDelay time.Duration // default: 1.5s

	// MaxBytes caps the size of a single acquired document.
	MaxBytes int64 // default: 100 MiB

	// DefaultMedium is used in filenames when the slug names none.
	DefaultMedium string // default: "Sinhala"
}

// ListingConfig controls the listing page scraper.
type ListingConfig struct {
	// URL is the default listing page.
	URL string // default: "https://pastpapers.wiki/category/general-english/"

	// Timeout bounds a single listing fetch.
	Timeout time.Duration // default: 15s

	// UserAgent is sent with listing requests.
	UserAgent string
}

// FilterConfig controls the resource filter.
type FilterConfig struct {
	// ExtraKeywords are appended to the built-in ad/tracker keyword list.
	ExtraKeywords []string

	// BlockThirdPartyHeavy aborts third-party images, fonts and media.
	BlockThirdPartyHeavy bool // default: true
}

// CacheConfig controls the listing response cache used by the API.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 200
}

// WebhookConfig controls run-completion notifications from the API.
type WebhookConfig struct {
	// Secret signs webhook bodies with HMAC-SHA256. Empty disables signing.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"

	// File, when set, also writes logs to a size-rotated file.
	File string
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PASTPAPERS_HOST", "127.0.0.1"),
			Port: envIntOr("PASTPAPERS_PORT", 8080),
			Mode: envOr("PASTPAPERS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("PASTPAPERS_HEADLESS", true),
			NoSandbox:      envBoolOr("PASTPAPERS_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("PASTPAPERS_BROWSER_BIN"),
			Proxy:          os.Getenv("PASTPAPERS_PROXY"),
			UserAgent:      envOr("PASTPAPERS_USER_AGENT", DefaultUserAgent),
			Stealth:        envBoolOr("PASTPAPERS_STEALTH", true),
			ViewportWidth:  envIntOr("PASTPAPERS_VIEWPORT_WIDTH", 1280),
			ViewportHeight: envIntOr("PASTPAPERS_VIEWPORT_HEIGHT", 800),
			ExtraHeaders:   envSliceOr("PASTPAPERS_EXTRA_HEADERS", []string{"Accept-Language: en-US,en;q=0.9"}),
		},
		Download: DownloadConfig{
			OutputDir:         envOr("PASTPAPERS_OUTPUT_DIR", "physics_2023_grade13_papers"),
			NavigationTimeout: envDurationOr("PASTPAPERS_NAV_TIMEOUT", 45*time.Second),
			DirectTimeout:     envDurationOr("PASTPAPERS_DIRECT_TIMEOUT", 45*time.Second),
			CaptureTimeout:    envDurationOr("PASTPAPERS_CAPTURE_TIMEOUT", 45*time.Second),
			LastResortTimeout: envDurationOr("PASTPAPERS_LAST_RESORT_TIMEOUT", 60*time.Second),
			PoliteDelay:       envDurationOr("PASTPAPERS_POLITE_DELAY", 1500*time.Millisecond),
			MaxBytes:          int64(envIntOr("PASTPAPERS_MAX_BYTES", 100<<20)),
			DefaultMedium:     envOr("PASTPAPERS_DEFAULT_MEDIUM", "Sinhala"),
		},
		Listing: ListingConfig{
			URL:       envOr("PASTPAPERS_LISTING_URL", "https://pastpapers.wiki/category/general-english/"),
			Timeout:   envDurationOr("PASTPAPERS_LISTING_TIMEOUT", 15*time.Second),
			UserAgent: envOr("PASTPAPERS_USER_AGENT", DefaultUserAgent),
		},
		Filter: FilterConfig{
			ExtraKeywords:        envSliceOr("PASTPAPERS_BLOCK_KEYWORDS", nil),
			BlockThirdPartyHeavy: envBoolOr("PASTPAPERS_BLOCK_THIRD_PARTY", true),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PASTPAPERS_CACHE_MAX_ENTRIES", 200),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("PASTPAPERS_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("PASTPAPERS_LOG_LEVEL", "info"),
			Format: envOr("PASTPAPERS_LOG_FORMAT", "text"),
			File:   os.Getenv("PASTPAPERS_LOG_FILE"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
