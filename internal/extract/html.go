package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Cards returns the nodes matched by the first selector that matches anything.
// Later selectors are fallbacks for alternative page layouts.
func Cards(doc *goquery.Document, selectors ...string) *goquery.Selection {
	var sel *goquery.Selection
	for _, s := range selectors {
		sel = doc.Find(s)
		if sel.Length() > 0 {
			return sel
		}
	}
	if sel == nil {
		return doc.Find("__none__")
	}
	return sel
}

// Text returns the cleaned text of the first node matched by selector within
// scope, or nil when nothing matches or the text is blank.
func Text(scope *goquery.Selection, selector string) *string {
	sel := scope
	if selector != "" {
		sel = scope.Find(selector)
	}
	if sel.Length() == 0 {
		return nil
	}
	t := Clean(sel.First().Text())
	if t == "" {
		return nil
	}
	return &t
}

// Texts returns the cleaned, non-blank texts of every node matched by selector
func Texts(scope *goquery.Selection, selector string) []string {
	var out []string
	scope.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := Clean(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns the trimmed attribute of the first node matched by selector
// within scope, or nil when absent.
func Attr(scope *goquery.Selection, selector, name string) *string {
	sel := scope
	if selector != "" {
		sel = scope.Find(selector)
	}
	v, ok := sel.First().Attr(name)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// Has reports whether selector matches a descendant of scope
func Has(scope *goquery.Selection, selector string) bool {
	return scope.Find(selector).Length() > 0
}

// OuterHTML renders the first node of sel, truncated to at most max bytes
// on a character boundary
func OuterHTML(sel *goquery.Selection, max int) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, sel.Get(0)); err != nil {
		return ""
	}
	out := Clean(b.String())
	if max > 0 && len(out) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "..."
	}
	return out
}
