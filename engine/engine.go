package engine

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"strings"
	"time"
)

// State is a step of the acquisition state machine for one input URL.
type State int

const (
	NotAttempted State = iota
	DirectFetch
	ClickCapture
	LastResort
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case DirectFetch:
		return "DIRECT_FETCH"
	case ClickCapture:
		return "CLICK_CAPTURE"
	case LastResort:
		return "LAST_RESORT"
	case Saved:
		return "SAVED"
	case Failed:
		return "FAILED"
	default:
		return "NOT_ATTEMPTED"
	}
}

// Strategy is one way of turning a candidate link into document bytes.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "direct", "click-capture").
	Name() string

	// State is the machine state while this strategy runs.
	State() State

	// Acquire fetches the document. It must honour ctx's deadline.
	Acquire(ctx context.Context, req *Request) (*Document, error)
}

// Request describes the candidate a strategy should acquire.
type Request struct {
	// PageURL is the paper page the candidate was found on.
	PageURL string

	// DocumentURL is the candidate href resolved against PageURL.
	DocumentURL string

	// Selector and Nth locate the candidate element in the live page.
	Selector string
	Nth      int
}

// Document is an acquired file.
type Document struct {
	Data               []byte
	ContentType        string
	ContentDisposition string
	SuggestedFilename  string
	SourceURL          string
	Strategy           string
}

// Reason is the typed cause of a failed attempt.
type Reason string

const (
	ReasonNotApplicable Reason = "not_applicable"
	ReasonTimeout       Reason = "timeout"
	ReasonNotPDF        Reason = "not_pdf"
	ReasonNoElement     Reason = "no_element"
	ReasonError         Reason = "error"
)

var (
	// ErrNotApplicable means the strategy cannot handle this candidate
	// (e.g. direct fetch of a URL that does not end in ".pdf").
	ErrNotApplicable = errors.New("engine: strategy not applicable")

	// ErrNoElement means the candidate element could not be found in
	// the live page.
	ErrNoElement = errors.New("engine: candidate element not found")

	// ErrNotPDF means a response arrived but it was not a PDF.
	ErrNotPDF = errors.New("engine: response is not a pdf")
)

// ReasonOf classifies an Acquire error.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrNotApplicable):
		return ReasonNotApplicable
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrNotPDF):
		return ReasonNotPDF
	case errors.Is(err, ErrNoElement):
		return ReasonNoElement
	default:
		return ReasonError
	}
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy string
	State    State
	Reason   Reason
	Err      error
	Duration time.Duration
}

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether a response looks like a PDF: either its content
// type says so, or the body starts with the PDF magic bytes.
func IsPDF(contentType string, data []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == "application/pdf" || mt == "application/x-pdf" {
			return true
		}
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// IsPDFContentType reports whether contentType alone names a PDF.
func IsPDFContentType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "pdf")
	}
	return mt == "application/pdf" || mt == "application/x-pdf"
}
