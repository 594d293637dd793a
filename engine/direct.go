package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
)

// DefaultUserAgent is sent by the direct fetcher when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPClient returns an http.Client whose TLS handshakes carry a Chrome
// fingerprint. Plain http:// connections use the default dialer.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// Direct fetches the candidate URL over plain HTTP. It only applies to
// URLs whose path ends in ".pdf".
type Direct struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewDirect creates a Direct strategy. A nil client gets NewHTTPClient(0);
// the per-attempt deadline comes from the context.
func NewDirect(client *http.Client, userAgent string, maxBytes int64) *Direct {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
	return &Direct{client: client, userAgent: userAgent, maxBytes: maxBytes}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) State() State { return DirectFetch }

func (d *Direct) Acquire(ctx context.Context, req *Request) (*Document, error) {
	if !HasPDFPath(req.DocumentURL) {
		return nil, ErrNotApplicable
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.DocumentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("direct: build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", d.userAgent)
	httpReq.Header.Set("Accept", "application/pdf,application/octet-stream;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	if req.PageURL != "" {
		httpReq.Header.Set("Referer", req.PageURL)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("direct: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("direct: status %d for %s", resp.StatusCode, req.DocumentURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("direct: read body: %w", err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("direct: body exceeds %d bytes", d.maxBytes)
	}

	ct := resp.Header.Get("Content-Type")
	if !IsPDF(ct, body) {
		return nil, fmt.Errorf("direct: content-type %q: %w", ct, ErrNotPDF)
	}

	return &Document{
		Data:               body,
		ContentType:        ct,
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		SourceURL:          resp.Request.URL.String(),
	}, nil
}

// HasPDFPath reports whether rawURL's path ends in ".pdf", ignoring case.
func HasPDFPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
