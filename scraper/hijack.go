package scraper

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/filter"
)

// protoToType maps Rod protocol resource types to filter resource types.
var protoToType = map[proto.NetworkResourceType]filter.ResourceType{
	proto.NetworkResourceTypeDocument: filter.ResourceDocument,
	proto.NetworkResourceTypeImage:    filter.ResourceImage,
	proto.NetworkResourceTypeFont:     filter.ResourceFont,
	proto.NetworkResourceTypeMedia:    filter.ResourceMedia,
	proto.NetworkResourceTypeScript:   filter.ResourceScript,
	proto.NetworkResourceTypeXHR:      filter.ResourceXHR,
	proto.NetworkResourceTypeFetch:    filter.ResourceFetch,
}

func resourceType(t proto.NetworkResourceType) filter.ResourceType {
	if rt, ok := protoToType[t]; ok {
		return rt
	}
	return filter.ResourceOther
}

// capturable lists the resource types a clicked download link can produce.
var capturable = map[filter.ResourceType]struct{}{
	filter.ResourceDocument: {},
	filter.ResourceXHR:      {},
	filter.ResourceFetch:    {},
	filter.ResourceOther:    {},
}

// pdfCapture hands the first PDF response seen while armed to the waiting
// click-capture attempt.
type pdfCapture struct {
	mu sync.Mutex
	ch chan *engine.Document
}

// arm starts a capture window and returns the channel it reports on.
func (c *pdfCapture) arm() <-chan *engine.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch = make(chan *engine.Document, 1)
	return c.ch
}

func (c *pdfCapture) disarm() {
	c.mu.Lock()
	c.ch = nil
	c.mu.Unlock()
}

func (c *pdfCapture) armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch != nil
}

// deliver reports doc if a capture window is open and still empty.
func (c *pdfCapture) deliver(doc *engine.Document) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch == nil {
		return false
	}
	select {
	case c.ch <- doc:
		return true
	default:
		return false
	}
}

// isPDFResponse accepts application/pdf, or application/octet-stream whose
// body starts with the PDF magic bytes.
func isPDFResponse(contentType string, body []byte) bool {
	if engine.IsPDFContentType(contentType) {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt != "application/octet-stream" {
		return false
	}
	return bytes.HasPrefix(body, []byte("%PDF-"))
}

// cookieHeader renders browser cookies as a Cookie request header value.
func cookieHeader(cookies []*proto.NetworkCookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// setupHijack installs a request interceptor on the page that aborts
// requests the filter rejects and, while capture is armed, loads candidate
// responses itself to look for a PDF. pageURL reports the page the
// third-party check is relative to. capture may be nil.
//
// Returns the running HijackRouter so the caller can defer router.Stop().
func setupHijack(page *rod.Page, flt *filter.Filter, pageURL func() string, capture *pdfCapture, client *http.Client) *rod.HijackRouter {
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		reqURL := ctx.Request.URL().String()
		rt := resourceType(ctx.Request.Type())

		if flt != nil && flt.Blocks(reqURL, rt, pageURL()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		if capture != nil && capture.armed() {
			if _, ok := capturable[rt]; ok {
				// Paused requests carry no Cookie header; the browser adds
				// it later in the network stack.
				if cookies, err := page.Cookies([]string{reqURL}); err == nil {
					if h := cookieHeader(cookies); h != "" {
						ctx.Request.Req().Header.Set("Cookie", h)
					}
				}
				if err := ctx.LoadResponse(client, true); err != nil {
					ctx.ContinueRequest(&proto.FetchContinueRequest{})
					return
				}
				ct := ctx.Response.Headers().Get("Content-Type")
				body := ctx.Response.Payload().Body
				if isPDFResponse(ct, body) {
					capture.deliver(&engine.Document{
						Data:               body,
						ContentType:        ct,
						ContentDisposition: ctx.Response.Headers().Get("Content-Disposition"),
						SourceURL:          reqURL,
					})
				}
				// The loaded response is fulfilled back to the page.
				return
			}
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It will exit when router.Stop() is called.
	go router.Run()

	return router
}
