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

// hanze reads the faceted-navigation JSON service. Pages start at 1 and the
// first response declares totalPages.
type hanze struct {
	base
}

func newHanze(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "hanze",
			Name:    "Hanze University of Applied Sciences",
			City:    "Groningen",
			Website: "https://www.hanze.nl",
		},
		Policy: models.PolicyUpsert,
		Pagination: pipeline.Pagination{
			Mode:      pipeline.KnownTotal,
			First:     1,
			PageDelay: 250 * time.Millisecond,
		},
	}
	return &hanze{base: newBase(site, "https://www.hanze.nl", map[string]string{
		"User-Agent":       chromeUA,
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
	}, opts)}
}

func (h *hanze) Request(page int) fetch.Request {
	return h.request("/services/education-facetednavigation", url.Values{
		"language":   {"en"},
		"overview":   {"1"},
		"mountalias": {"hanze-en"},
		"page":       {strconv.Itoa(page)},
	})
}

func (h *hanze) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := extract.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	ex.TotalPages, _ = doc.Int("totalPages")
	for _, item := range doc.Objects("results") {
		rec := extract.NewRecord()
		rec.Set("title", item.String("title"))
		rec.Set("url", item.String("url"))
		rec.Labels = item.Strings("labels")
		ex.Records = append(ex.Records, rec)
	}
	if len(ex.Records) == 0 {
		ex.Notes = append(ex.Notes, "No programs found in the API response")
	} else {
		ex.Notes = append(ex.Notes, fmt.Sprintf("Found %d programs (totalPages=%d)", len(ex.Records), ex.TotalPages))
	}
	return ex, nil
}

func (h *hanze) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, ok := rec.Get("title")
	typ, hasType := pipeline.PickLabel(rec.Labels, "Bachelor", "Master", "PhD")
	if !ok || !hasType {
		return models.CourseFields{}, pipeline.Missing("title", "type")
	}
	return models.CourseFields{
		Title:    title,
		Type:     typ,
		Location: "Groningen",
		URL:      h.link(rec.Ptr("url")),
	}, nil
}
