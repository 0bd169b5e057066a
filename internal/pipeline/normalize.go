package pipeline

import (
	"strings"

	urlutil "github.com/law-makers/uniscrape/internal/utils/url"
)

// InferType scans texts for keyword substrings. Keywords are tried in
// priority order and the first keyword found in any text wins.
func InferType(texts []string, keywords ...string) (string, bool) {
	for _, kw := range keywords {
		for _, t := range texts {
			if strings.Contains(t, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

// InferTypeOr is InferType with a catch-all default
func InferTypeOr(texts []string, fallback string, keywords ...string) string {
	if t, ok := InferType(texts, keywords...); ok {
		return t
	}
	return fallback
}

// PickLabel returns the first label that exactly matches one of allowed
func PickLabel(labels []string, allowed ...string) (string, bool) {
	for _, l := range labels {
		for _, a := range allowed {
			if l == a {
				return l, true
			}
		}
	}
	return "", false
}

// JoinURL makes href absolute against base. Absolute hrefs pass through,
// nil stays nil.
func JoinURL(base string, href *string) *string {
	if href == nil || strings.TrimSpace(*href) == "" {
		return nil
	}
	out := urlutil.ResolveURL(base, strings.TrimSpace(*href))
	return &out
}

// StripPrefix removes prefix from the start of title and trims the rest
func StripPrefix(title, prefix string) string {
	if strings.HasPrefix(title, prefix) {
		return strings.TrimSpace(title[len(prefix):])
	}
	return title
}

// TitleSet remembers titles emitted during one run
type TitleSet map[string]struct{}

// Has reports whether title was already recorded
func (s TitleSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Add records title and reports whether it was new
func (s TitleSet) Add(title string) bool {
	if _, ok := s[title]; ok {
		return false
	}
	s[title] = struct{}{}
	return true
}
