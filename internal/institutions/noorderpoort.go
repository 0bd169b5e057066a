package institutions

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

// noorderpoort calls the programmes JSON API on the bare domain while program
// pages live under www. A BaseURL override replaces both.
type noorderpoort struct {
	base
	linkOrigin string
}

func newNoorderpoort(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "noorderpoort",
			Name:    "Noorderpoort",
			City:    "Groningen",
			Website: "https://www.noorderpoort.nl",
		},
		Policy: models.PolicyReplace,
		Pagination: pipeline.Pagination{
			Mode:             pipeline.KnownTotal,
			First:            1,
			PageDelay:        250 * time.Millisecond,
			RequireFirstPage: true,
		},
	}
	n := &noorderpoort{
		base: newBase(site, "https://noorderpoort.nl", map[string]string{
			"User-Agent":      macChromeUA,
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
			"Referer":         "https://noorderpoort.nl/voor-studenten/opleidingen",
			"Sec-Fetch-Site":  "same-origin",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Dest":  "empty",
		}, opts),
		linkOrigin: "https://www.noorderpoort.nl",
	}
	if opts.BaseURL != "" {
		n.linkOrigin = opts.BaseURL
	}
	return n
}

func (n *noorderpoort) Request(page int) fetch.Request {
	return n.request("/programmes/nl-NL/1199", url.Values{"page": {strconv.Itoa(page)}})
}

func (n *noorderpoort) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := extract.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	ex.TotalPages, _ = doc.Int("totalPages")
	for _, item := range doc.Objects("items") {
		rec := extract.NewRecord()
		rec.Set("title", item.String("title"))
		rec.Set("tag", item.String("tag"))
		rec.Set("level", item.String("level"))
		rec.Set("location", item.String("location"))
		for _, u := range item.Objects("urls") {
			if href := u.String("url"); href != nil {
				rec.Set("url", href)
				break
			}
		}
		ex.Records = append(ex.Records, rec)
	}
	ex.Notes = append(ex.Notes, fmt.Sprintf("Page %d: %d programmes (totalPages=%d)", page, len(ex.Records), ex.TotalPages))
	return ex, nil
}

func (n *noorderpoort) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, ok := rec.Get("title")
	if !ok {
		return models.CourseFields{}, pipeline.Missing("title")
	}
	typ := pipeline.InferTypeOr([]string{rec.Value("tag"), title}, "MBO", "BOL", "BBL")
	location := rec.Value("location")
	if location == "" {
		location = "Groningen"
	}
	return models.CourseFields{
		Title:          title,
		Type:           typ,
		Location:       location,
		URL:            pipeline.JoinURL(n.linkOrigin, rec.Ptr("url")),
		EducationLevel: rec.Ptr("level"),
	}, nil
}
