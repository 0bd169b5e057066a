package institutions

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

// nhlStenden parses the English course overview, which spans two pages
// numbered from 0.
type nhlStenden struct {
	base
}

func newNHLStenden(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "nhl-stenden",
			Name:    "NHL Stenden University of Applied Sciences",
			City:    "Leeuwarden",
			Website: "https://www.nhlstenden.com",
		},
		Policy: models.PolicyUpsert,
		Pagination: pipeline.Pagination{
			Mode:      pipeline.KnownTotal,
			First:     0,
			Pages:     2,
			PageDelay: 500 * time.Millisecond,
		},
	}
	return &nhlStenden{base: newBase(site, "https://www.nhlstenden.com", browserHeaders(), opts)}
}

func (n *nhlStenden) Request(page int) fetch.Request {
	return n.request("/en/courses", url.Values{"page": {strconv.Itoa(page)}})
}

func (n *nhlStenden) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	cards := doc.Find("div.node__content").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return extract.Has(s, "h3.node__title")
	})
	ex.Notes = append(ex.Notes, fmt.Sprintf("Found %d course nodes", cards.Length()))

	cards.Each(func(_ int, card *goquery.Selection) {
		rec := extract.NewRecord()
		rec.Set("title", extract.Text(card, "h3.node__title span.field--name-title"))
		rec.Set("type", extract.Text(card.Find("div.node__content-row").First(), "div.field--name-field-education-level"))
		if locs := extract.Texts(card, "div.field--name-field-locations div.field__items > div"); len(locs) > 0 {
			rec.SetString("location", strings.Join(locs, ", "))
		}
		rec.Snippet = extract.OuterHTML(card, 500)
		ex.Records = append(ex.Records, rec)
	})
	return ex, nil
}

func (n *nhlStenden) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, hasTitle := rec.Get("title")
	typ, hasType := rec.Get("type")
	if !hasTitle || !hasType {
		return models.CourseFields{}, pipeline.Missing("title", "type")
	}
	return models.CourseFields{
		Title:    title,
		Type:     typ,
		Location: rec.Value("location"),
	}, nil
}
