// Package report renders run reports, course listings and institution
// statistics as console tables, HTML, Markdown, JSON and CSV.
package report

import (
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

var funcs = template.FuncMap{
	"deref": models.Deref,
	"debug": func(s string) bool { return strings.HasPrefix(s, "Debug - ") },
}

var programsTmpl = template.Must(template.New("programs").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Institution.Name}} programs</title></head>
<body>
<h1>{{.Institution.Name}}</h1>
<p>{{.Institution.City}}{{with .Institution.Website}} &middot; <a href="{{.}}">{{.}}</a>{{end}}</p>
<h2>Scrape summary</h2>
<ul>
<li>Courses processed: {{.CoursesProcessed}}</li>
<li>Pages scraped: {{.PagesScraped}}</li>
<li>Total programs: {{len .Courses}}</li>
</ul>
{{if .Errors}}<h2>Errors</h2>
<ul>
{{range .Errors}}<li{{if debug .}} class="debug"{{end}}>{{.}}</li>
{{end}}</ul>
{{end}}<h2>Programs</h2>
{{if .Courses}}<table>
<thead><tr><th>Title</th><th>Type</th><th>Location</th><th>Level</th><th>Link</th></tr></thead>
<tbody>
{{range .Courses}}<tr><td>{{.Title}}</td><td>{{.Type}}</td><td>{{.Location}}</td><td>{{deref .EducationLevel}}</td><td>{{with deref .URL}}<a href="{{.}}">{{.}}</a>{{end}}</td></tr>
{{end}}</tbody>
</table>
{{else}}<p>No programs found.</p>
{{end}}</body>
</html>
`))

var statsTmpl = template.Must(template.New("stats").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Institutions</title></head>
<body>
<h1>Institutions</h1>
<table>
<thead><tr><th>Name</th><th>City</th><th>Courses</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Name}}</td><td>{{.City}}</td><td>{{.CourseCount}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// HTML writes the programs page for a run report
func HTML(w io.Writer, rep *pipeline.Report) error {
	return programsTmpl.Execute(w, rep)
}

// StatsHTML writes the institution overview page
func StatsHTML(w io.Writer, stats []models.InstitutionStats) error {
	return statsTmpl.Execute(w, stats)
}

// CleanHTML removes unwanted elements and attributes so the markup converts
// cleanly. Only link and image attributes survive.
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			switch {
			case node.Data == "a" && (attr.Key == "href" || attr.Key == "title"):
				kept = append(kept, attr)
			case node.Data == "img" && (attr.Key == "src" || attr.Key == "alt"):
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
