package institutions

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

// Navigation entries that share the program item markup
var drentheIgnored = map[string]bool{
	"Alle opleidingen":        true,
	"Bekijk alle opleidingen": true,
	"Wat is BOL?":             true,
	"Wat is BBL?":             true,
}

// drentheCollege reads program links out of the site navigation
type drentheCollege struct {
	base
}

func newDrentheCollege(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "drenthe-college",
			Name:    "Drenthe College",
			City:    "Emmen",
			Website: "https://www.drenthecollege.nl",
		},
		Policy: models.PolicyReplace,
		Pagination: pipeline.Pagination{
			Mode:             pipeline.SinglePage,
			First:            1,
			RequireFirstPage: true,
		},
	}
	return &drentheCollege{base: newBase(site, "https://www.drenthecollege.nl", browserHeaders(), opts)}
}

func (d *drentheCollege) Request(int) fetch.Request {
	return d.request("/opleidingen/", nil)
}

func (d *drentheCollege) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	items := doc.Find(".navigationItem")
	ex.Notes = append(ex.Notes, fmt.Sprintf("Found %d navigation items", items.Length()))

	items.Each(func(_ int, item *goquery.Selection) {
		rec := extract.NewRecord()
		rec.Set("title", extract.Text(item, ".btn-text"))
		rec.Set("url", extract.Attr(item, "a", "href"))
		ex.Records = append(ex.Records, rec)
	})
	return ex, nil
}

func (d *drentheCollege) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, ok := rec.Get("title")
	if !ok || drentheIgnored[title] {
		return models.CourseFields{}, pipeline.ErrSkip
	}
	link := d.link(rec.Ptr("url"))
	return models.CourseFields{
		Title:    title,
		Type:     mboPathway(title, models.Deref(link)),
		Location: "Emmen",
		URL:      link,
	}, nil
}

// mboPathway classifies an MBO program as BOL (school-based), BBL
// (work-based) or plain MBO from its title and link.
func mboPathway(title, link string) string {
	switch {
	case strings.Contains(link, "/bol/") || strings.Contains(title, "BOL"):
		return "BOL"
	case strings.Contains(link, "/bbl/") || strings.Contains(title, "BBL"):
		return "BBL"
	}
	return "MBO"
}
