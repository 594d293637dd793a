package naming

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// PaperInfo is what a paper page slug says about the paper.
type PaperInfo struct {
	School  string
	Subject string
	Year    int
	Grade   int
	Term    string // "1st", "2nd", "3rd"
	Medium  string // "Sinhala", "Tamil", "English" or empty
	Copy    int    // duplicate-page suffix ("-2" → 2), 0 when absent
}

// subjects maps slug token sequences to display names. Longer sequences
// are tried first.
var subjects = []struct {
	tokens []string
	name   string
}{
	{[]string{"combined", "maths"}, "Combined Maths"},
	{[]string{"combined", "mathematics"}, "Combined Maths"},
	{[]string{"business", "studies"}, "Business Studies"},
	{[]string{"general", "english"}, "General English"},
	{[]string{"physics"}, "Physics"},
	{[]string{"chemistry"}, "Chemistry"},
	{[]string{"biology"}, "Biology"},
	{[]string{"accounting"}, "Accounting"},
	{[]string{"economics"}, "Economics"},
	{[]string{"ict"}, "ICT"},
	{[]string{"maths"}, "Maths"},
	{[]string{"mathematics"}, "Maths"},
	{[]string{"science"}, "Science"},
}

var (
	terms   = map[string]string{"1st": "1st", "2nd": "2nd", "3rd": "3rd", "first": "1st", "second": "2nd", "third": "3rd"}
	mediums = map[string]string{"sinhala": "Sinhala", "tamil": "Tamil", "english": "English"}
	fillers = map[string]struct{}{"test": {}, "paper": {}, "papers": {}, "exam": {}, "term": {}, "medium": {}, "pdf": {}}
)

// SlugOf returns the last non-empty path segment of rawURL with all
// whitespace removed.
func SlugOf(rawURL string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, rawURL)
	u, err := url.Parse(clean)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	return strings.ToLower(path.Base(p))
}

// ParseSlug extracts paper details from a slug such as
// "royal-college-physics-1st-term-test-paper-2023-grade-13-2" or
// "grade-13-physics-1st-term-test-paper-2018-north-western-province-tamil-medium".
// Tokens that are not recognized as year, grade, term, subject, medium or
// filler make up the school, in slug order.
func ParseSlug(slug string) PaperInfo {
	var info PaperInfo
	tokens := strings.FieldsFunc(strings.ToLower(slug), func(r rune) bool {
		return r == '-' || r == '_'
	})

	// A trailing small number after a recognized grade/year is WordPress's
	// duplicate-slug suffix.
	if n := len(tokens); n >= 2 {
		if c, err := strconv.Atoi(tokens[n-1]); err == nil && c > 1 && c < 100 && tokens[n-2] != "grade" {
			info.Copy = c
			tokens = tokens[:n-1]
		}
	}

	var school []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		next := ""
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		switch {
		case tok == "grade" && isNumber(next):
			info.Grade, _ = strconv.Atoi(next)
			i++
		case isYear(tok):
			info.Year, _ = strconv.Atoi(tok)
		case terms[tok] != "" && next == "term":
			info.Term = terms[tok]
			i++
		case mediums[tok] != "" && next == "medium":
			info.Medium = mediums[tok]
			i++
		default:
			if name, n := matchSubject(tokens[i:]); n > 0 && info.Subject == "" {
				info.Subject = name
				i += n - 1
				continue
			}
			if _, filler := fillers[tok]; filler {
				continue
			}
			school = append(school, tok)
		}
	}

	info.School = titleCase(strings.Join(school, " "))
	return info
}

func matchSubject(tokens []string) (string, int) {
	for _, s := range subjects {
		if len(tokens) < len(s.tokens) {
			continue
		}
		match := true
		for j, t := range s.tokens {
			if tokens[j] != t {
				match = false
				break
			}
		}
		if match {
			return s.name, len(s.tokens)
		}
	}
	return "", 0
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func isYear(s string) bool {
	if len(s) != 4 || !isNumber(s) {
		return false
	}
	return strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20")
}
