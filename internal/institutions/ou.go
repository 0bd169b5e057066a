package institutions

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

// ouDescription matches "Bachelor | 180 EC" style summaries
var ouDescription = regexp.MustCompile(`(Bachelor|Master|Premaster|Cursus|Contractonderwijs|Korte studie|Training|Minor)\s*\|\s*(\d+)\s*EC`)

// ou probes the Open Universiteit overview 20 items at a time. The site
// never states how many pages exist.
type ou struct {
	base
}

func newOU(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "ou",
			Name:    "Open Universiteit",
			City:    "Heerlen",
			Website: "https://www.ou.nl",
		},
		Policy: models.PolicyReplace,
		Pagination: pipeline.Pagination{
			Mode:       pipeline.ProbeUntilEmpty,
			First:      1,
			Pages:      42,
			PageDelay:  500 * time.Millisecond,
			BatchSize:  10,
			BatchDelay: 500 * time.Millisecond,
		},
	}
	return &ou{base: newBase(site, "https://www.ou.nl", browserHeaders(), opts)}
}

func (o *ou) Request(page int) fetch.Request {
	return o.request("/opleiding-overzicht", url.Values{
		"page":           {strconv.Itoa(page)},
		"items_per_page": {"20"},
	})
}

func (o *ou) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	cards := doc.Find(".list__item__container")
	ex.Notes = append(ex.Notes, fmt.Sprintf("Page %d: %d list items", page, cards.Length()))

	cards.Each(func(_ int, card *goquery.Selection) {
		rec := extract.NewRecord()
		rec.Set("title", extract.Text(card, ".list__item__title"))
		if summary := extract.Text(card, ".list__item__description"); summary != nil {
			if m := ouDescription.FindStringSubmatch(*summary); m != nil {
				rec.SetString("type", m[1])
				rec.SetString("education_level", m[2]+" EC")
			}
		}
		rec.Set("description", extract.Text(card, ".list__item__content"))
		rec.Set("url", extract.Attr(card, "a", "href"))
		rec.Snippet = extract.OuterHTML(card, 300)
		ex.Records = append(ex.Records, rec)
	})
	return ex, nil
}

func (o *ou) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, hasTitle := rec.Get("title")
	typ, hasType := rec.Get("type")
	if !hasTitle || !hasType {
		return models.CourseFields{}, pipeline.Missing("title", "type")
	}
	return models.CourseFields{
		Title:          title,
		Type:           typ,
		URL:            o.link(rec.Ptr("url")),
		EducationLevel: rec.Ptr("education_level"),
		Description:    rec.Ptr("description"),
	}, nil
}
