// Package naming derives output filenames for acquired papers.
package naming

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase builds a fresh Caser per call; Casers are not goroutine-safe.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Policy turns a page URL and the acquisition metadata into a filename.
type Policy struct {
	// DefaultMedium fills the medium slot when the slug names none.
	DefaultMedium string
}

// NewPolicy returns a Policy with the given default medium.
func NewPolicy(defaultMedium string) *Policy {
	return &Policy{DefaultMedium: defaultMedium}
}

// Input is everything the policy may draw a name from.
type Input struct {
	PageURL            string
	ContentDisposition string
	SuggestedFilename  string // from a native download event
	DocumentURL        string
	Index              int // 1-based input position
}

// Name returns a sanitized filename ending in ".pdf". Sources, in order:
// the page slug (when it names a school), the Content-Disposition
// filename, the browser's suggested filename, the basename of a ".pdf"
// document URL, and finally "paper_{index}.pdf".
func (p *Policy) Name(in Input) string {
	if info := ParseSlug(SlugOf(in.PageURL)); info.School != "" {
		return Sanitize(p.Format(info))
	}
	if fn := FromContentDisposition(in.ContentDisposition); fn != "" {
		return Sanitize(fn)
	}
	if in.SuggestedFilename != "" {
		return Sanitize(in.SuggestedFilename)
	}
	if fn := pdfBase(in.DocumentURL); fn != "" {
		return Sanitize(fn)
	}
	return Sanitize(fmt.Sprintf("paper_%d.pdf", in.Index))
}

// Format renders info as
// "{School} - {Year} Grade {Grade} {Subject} {Term} Term - {Medium}.pdf",
// omitting the parts the slug did not provide.
func (p *Policy) Format(info PaperInfo) string {
	var mid []string
	if info.Year > 0 {
		mid = append(mid, strconv.Itoa(info.Year))
	}
	if info.Grade > 0 {
		mid = append(mid, "Grade "+strconv.Itoa(info.Grade))
	}
	if info.Subject != "" {
		mid = append(mid, info.Subject)
	}
	if info.Term != "" {
		mid = append(mid, info.Term+" Term")
	}

	parts := []string{info.School}
	if len(mid) > 0 {
		parts = append(parts, strings.Join(mid, " "))
	}
	medium := info.Medium
	if medium == "" {
		medium = p.DefaultMedium
	}
	if medium != "" {
		parts = append(parts, medium)
	}

	name := strings.Join(parts, " - ")
	if info.Copy > 1 {
		name += fmt.Sprintf(" (%d)", info.Copy)
	}
	return name + ".pdf"
}

// FromContentDisposition returns the filename parameter of a
// Content-Disposition header (RFC 6266 filename* included), or "".
func FromContentDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	fn := params["filename"]
	if fn == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(fn, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// pdfBase returns the unescaped last path segment of rawURL when it ends
// in ".pdf".
func pdfBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if !strings.HasSuffix(strings.ToLower(base), ".pdf") {
		return ""
	}
	return base
}
