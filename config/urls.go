package config

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrEmptyList is returned when a URL list file contains no URLs.
var ErrEmptyList = errors.New("url list is empty")

// DefaultURLs is the built-in input list of 2023 Grade 13 Physics
// first-term papers (plus a few older provincial ones).
var DefaultURLs = []string{
	"https://pastpapers.wiki/north-central-province-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/visakha-vidyalaya-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/thurstan-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/taxila-central-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/taxila-central-college-physics-1st-term-test-paper-2023-grade-13-2/?swcfpc=1",
	"https://pastpapers.wiki/sripalee-national-school-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/sivali-central-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/seethawaka-national-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/royal-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/royal-college-physics-1st-term-test-paper-2023-grade-13-2/?swcfpc=1",
	"https://pastpapers.wiki/mahanama-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/mahamaya-girls-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/ferguson-high-school-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/dharmapala-vidyalaya-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/devi-balika-vidyalaya-physics-1st-term-test-paper-2023-grade-13-2/?swcfpc=1",
	"https://pastpapers.wiki/devi-balika-vidyalaya-physics-1st-term-test-paper-2023-grade-13/   ?swcfpc=1",
	"https://pastpapers.wiki/anula-vidyalaya-physics-1st-term-test-paper-2023-grade-13-2/?swcfpc=1",
	"https://pastpapers.wiki/ananda-college-physics-1st-term-test-paper-2023-grade-13/?swcfpc=1",
	"https://pastpapers.wiki/grade-13-physics-1st-term-test-paper-2020-north-western-province/",
	"https://pastpapers.wiki/grade-13-physics-1st-term-test-paper-2020-north-western-province-2/",
	"https://pastpapers.wiki/grade-13-physics-1st-term-test-paper-2020-north-western-province-3/",
	"https://pastpapers.wiki/grade-13-physics-1st-term-test-paper-2018-north-western-province-tamil-medium/?swcfpc=1",
}

// urlListFile is the YAML shape of a URL list:
//
//	urls:
//	  - https://pastpapers.wiki/...
type urlListFile struct {
	URLs []string `yaml:"urls"`
}

// LoadURLList reads input URLs from path. Files ending in .yaml or .yml
// are decoded as a urlListFile; anything else is read one URL per line,
// skipping blank lines and lines starting with '#'.
func LoadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided list path is intentional
	if err != nil {
		return nil, err
	}

	var raw []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var f urlListFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		raw = f.URLs
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}

	urls := NormalizeURLs(raw)
	if len(urls) == 0 {
		return nil, ErrEmptyList
	}
	return urls, nil
}

// NormalizeURLs strips all whitespace inside each URL (hand-edited lists
// tend to carry stray spaces before the query string) and drops entries
// that end up empty. Order and duplicates are preserved.
func NormalizeURLs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, u)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
