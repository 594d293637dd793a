// Package filter decides which outbound browser requests are aborted
// before they reach the network.
package filter

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ResourceType mirrors the CDP resource type names the browser reports.
type ResourceType string

const (
	ResourceDocument ResourceType = "Document"
	ResourceImage    ResourceType = "Image"
	ResourceFont     ResourceType = "Font"
	ResourceMedia    ResourceType = "Media"
	ResourceScript   ResourceType = "Script"
	ResourceXHR      ResourceType = "XHR"
	ResourceFetch    ResourceType = "Fetch"
	ResourceOther    ResourceType = "Other"
)

// heavyTypes are blocked when they come from another site.
var heavyTypes = map[ResourceType]struct{}{
	ResourceImage: {},
	ResourceFont:  {},
	ResourceMedia: {},
}

// DefaultKeywords are substrings of ad, tracker and push-notification
// hosts. Matching is a plain substring test on the lowercased URL.
var DefaultKeywords = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googleadservices.com",
	"adservice.google.com",
	"google-analytics.com",
	"googletagmanager.com",
	"googletagservices.com",
	"adnxs.com",
	"adsrvr.org",
	"amazon-adsystem.com",
	"pubmatic.com",
	"rubiconproject.com",
	"openx.net",
	"casalemedia.com",
	"smartadserver.com",
	"criteo.com",
	"criteo.net",
	"taboola.com",
	"outbrain.com",
	"mgid.com",
	"revcontent.com",
	"adsafeprotected.com",
	"moatads.com",
	"scorecardresearch.com",
	"quantserve.com",
	"facebook.net",
	"connect.facebook.net",
	"hotjar.com",
	"media.net",
	"bidswitch.net",
	"demdex.net",
	"serving-sys.com",
	"sharethis.com",
	"addthis.com",
	"onesignal.com",
	"pushengage.com",
}

// Decision is the result of classifying one request.
type Decision int

const (
	Allow Decision = iota
	BlockAd
	BlockThirdPartyHeavy
)

func (d Decision) String() string {
	switch d {
	case BlockAd:
		return "ad"
	case BlockThirdPartyHeavy:
		return "third-party-heavy"
	default:
		return "allow"
	}
}

// Filter is an immutable request classifier. It is safe for concurrent use.
type Filter struct {
	keywords   []string
	blockHeavy bool
}

// New builds a Filter from the default keyword list plus extra keywords.
// When blockHeavy is false, only the keyword test applies.
func New(extra []string, blockHeavy bool) *Filter {
	kw := make([]string, 0, len(DefaultKeywords)+len(extra))
	seen := make(map[string]struct{}, cap(kw))
	for _, k := range append(append([]string{}, DefaultKeywords...), extra...) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kw = append(kw, k)
	}
	return &Filter{keywords: kw, blockHeavy: blockHeavy}
}

// IsAd reports whether rawURL contains any blocked keyword.
// It depends on nothing but the URL string.
func (f *Filter) IsAd(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Classify decides the fate of a request for reqURL of the given resource
// type, issued while pageURL is loaded.
func (f *Filter) Classify(reqURL string, rt ResourceType, pageURL string) Decision {
	if f.IsAd(reqURL) {
		return BlockAd
	}
	if !f.blockHeavy {
		return Allow
	}
	if _, heavy := heavyTypes[rt]; !heavy {
		return Allow
	}
	if ThirdParty(reqURL, pageURL) {
		return BlockThirdPartyHeavy
	}
	return Allow
}

// Blocks is shorthand for Classify(...) != Allow.
func (f *Filter) Blocks(reqURL string, rt ResourceType, pageURL string) bool {
	return f.Classify(reqURL, rt, pageURL) != Allow
}

// ThirdParty reports whether reqURL belongs to a different site than
// pageURL, comparing registrable domains (eTLD+1). data: and blob: URLs
// and unparsable inputs are treated as first-party.
func ThirdParty(reqURL, pageURL string) bool {
	reqSite, ok := site(reqURL)
	if !ok {
		return false
	}
	pageSite, ok := site(pageURL)
	if !ok {
		return false
	}
	return reqSite != pageSite
}

// site returns the registrable domain of rawURL.
func site(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, true
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// localhost and bare suffixes: fall back to the host itself.
		return host, true
	}
	return etld1, true
}
