package filter

import "testing"

func TestIsAd(t *testing.T) {
	f := New(nil, true)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js", true},
		{"https://securepubads.g.doubleclick.net/tag/js/gpt.js", true},
		{"https://CDN.OneSignal.com/sdks/OneSignalSDK.js", true},
		{"https://pastpapers.wiki/wp-content/uploads/2023/paper.pdf", false},
		{"https://pastpapers.wiki/?ref=taboola.com", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := f.IsAd(tt.url); got != tt.want {
				t.Errorf("IsAd(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsAd_Pure(t *testing.T) {
	f := New(nil, true)
	url := "https://ads.pubmatic.com/AdServer/js/pwt.js"
	first := f.IsAd(url)
	for i := 0; i < 100; i++ {
		if f.IsAd(url) != first {
			t.Fatal("IsAd returned different answers for the same URL")
		}
	}
	// The page context must not influence the keyword test.
	if f.Classify(url, ResourceScript, "https://pastpapers.wiki/") != BlockAd {
		t.Error("ad URL should be blocked regardless of page")
	}
	if f.Classify(url, ResourceScript, "https://pubmatic.com/") != BlockAd {
		t.Error("ad URL should be blocked even on the ad network's own site")
	}
}

func TestNew_ExtraKeywords(t *testing.T) {
	f := New([]string{"  Evil-Tracker.IO ", "", "doubleclick.net"}, false)
	if !f.IsAd("https://cdn.evil-tracker.io/t.js") {
		t.Error("extra keyword should be matched case-insensitively")
	}
	if got, want := len(f.keywords), len(DefaultKeywords)+1; got != want {
		t.Errorf("keyword count = %d, want %d (blank and duplicate dropped)", got, want)
	}
}

func TestClassify(t *testing.T) {
	page := "https://pastpapers.wiki/royal-college-physics-1st-term-test-paper-2023-grade-13/"

	tests := []struct {
		name       string
		blockHeavy bool
		url        string
		rt         ResourceType
		want       Decision
	}{
		{"same-site image", true, "https://pastpapers.wiki/logo.png", ResourceImage, Allow},
		{"subdomain image", true, "https://cdn.pastpapers.wiki/logo.png", ResourceImage, Allow},
		{"third-party image", true, "https://i0.wp.com/pastpapers.wiki/logo.png", ResourceImage, BlockThirdPartyHeavy},
		{"third-party font", true, "https://fonts.gstatic.com/s/roboto.woff2", ResourceFont, BlockThirdPartyHeavy},
		{"third-party media", true, "https://videos.example.org/clip.mp4", ResourceMedia, BlockThirdPartyHeavy},
		{"third-party script", true, "https://code.jquery.com/jquery.js", ResourceScript, Allow},
		{"third-party document", true, "https://drive.google.com/file/d/x", ResourceDocument, Allow},
		{"heavy blocking off", false, "https://fonts.gstatic.com/s/roboto.woff2", ResourceFont, Allow},
		{"ad beats heavy", true, "https://tpc.googlesyndication.com/img.png", ResourceImage, BlockAd},
		{"data url", true, "data:image/png;base64,AAAA", ResourceImage, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(nil, tt.blockHeavy)
			if got := f.Classify(tt.url, tt.rt, page); got != tt.want {
				t.Errorf("Classify(%q, %s) = %s, want %s", tt.url, tt.rt, got, tt.want)
			}
			if f.Blocks(tt.url, tt.rt, page) != (tt.want != Allow) {
				t.Error("Blocks disagrees with Classify")
			}
		})
	}
}

func TestThirdParty(t *testing.T) {
	tests := []struct {
		req, page string
		want      bool
	}{
		{"https://a.example.co.uk/x", "https://b.example.co.uk/y", false},
		{"https://example.co.uk/x", "https://other.co.uk/y", true},
		{"http://127.0.0.1:8080/a.png", "http://127.0.0.1:8080/", false},
		{"http://127.0.0.1:9090/a.png", "http://localhost:8080/", true},
		{"::bad::", "https://pastpapers.wiki/", false},
	}
	for _, tt := range tests {
		if got := ThirdParty(tt.req, tt.page); got != tt.want {
			t.Errorf("ThirdParty(%q, %q) = %v, want %v", tt.req, tt.page, got, tt.want)
		}
	}
}
