package institutions

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

// windesheim lists every study on one page as cards
type windesheim struct {
	base
}

func newWindesheim(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "windesheim",
			Name:    "Windesheim University of Applied Sciences",
			City:    "Zwolle",
			Website: "https://www.windesheim.com",
		},
		Policy:     models.PolicyUpsert,
		Pagination: pipeline.Pagination{Mode: pipeline.SinglePage, First: 1},
	}
	return &windesheim{base: newBase(site, "https://www.windesheim.nl", browserHeaders(), opts)}
}

func (w *windesheim) Request(int) fetch.Request {
	return w.request("/opleidingen", nil)
}

func (w *windesheim) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	cards := extract.Cards(doc, "li.card--study", "div.card--study")
	ex.Notes = append(ex.Notes, fmt.Sprintf("Found %d program cards", cards.Length()))

	cards.Each(func(_ int, card *goquery.Selection) {
		rec := extract.NewRecord()
		rec.Set("title", extract.Text(card, "h2.title"))
		rec.Set("url", extract.Attr(card, "a[href*='/opleidingen/']", "href"))
		rec.Labels = extract.Texts(card, "ul.list--icons > li")
		rec.Snippet = extract.OuterHTML(card, 500)
		ex.Records = append(ex.Records, rec)
	})
	return ex, nil
}

func (w *windesheim) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, hasTitle := rec.Get("title")
	typ, hasType := pipeline.InferType(rec.Labels, "Bachelor", "Master", "Post-hbo")
	if !hasTitle || !hasType {
		return models.CourseFields{}, pipeline.Missing("title", "type")
	}
	return models.CourseFields{
		Title:    title,
		Type:     typ,
		Location: "Zwolle",
		URL:      w.link(rec.Ptr("url")),
	}, nil
}
