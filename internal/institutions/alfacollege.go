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

const alfaSearchPath = "/api/AlfaCollege/FacetedSearch/v1/get/4d00cd88-120e-4a49-b5b8-0f1e10d3205e"

// alfaCollege reads the MBO faceted-search API in batches of five pages
type alfaCollege struct {
	base
}

func newAlfaCollege(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "alfacollege",
			Name:    "Alfa-college",
			City:    "Groningen",
			Website: "https://www.alfa-college.nl",
		},
		Policy: models.PolicyReplace,
		Pagination: pipeline.Pagination{
			Mode:             pipeline.KnownTotal,
			First:            1,
			PageDelay:        250 * time.Millisecond,
			BatchSize:        5,
			BatchDelay:       time.Second,
			RequireFirstPage: true,
		},
	}
	return &alfaCollege{base: newBase(site, "https://www.alfa-college.nl", map[string]string{
		"User-Agent":      chromeUA,
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://www.alfa-college.nl/mbo-opleidingen",
	}, opts)}
}

func (a *alfaCollege) Request(page int) fetch.Request {
	return a.request(alfaSearchPath, url.Values{
		"q":           {""},
		"currentPage": {strconv.Itoa(page)},
	})
}

func (a *alfaCollege) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := extract.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	ex := &pipeline.Extraction{}
	ex.TotalPages, _ = doc.Int("totalPages")
	for _, item := range doc.Objects("items") {
		rec := extract.NewRecord()
		rec.Set("title", item.String("title"))
		rec.Set("type", item.String("type"))
		rec.Set("education_level", item.String("educationLevel"))
		rec.Set("location", item.String("location"))
		rec.Set("description", item.String("lead"))
		rec.Set("url", item.String("url"))
		rec.Set("duration", item.String("duration"))
		ex.Records = append(ex.Records, rec)
	}
	ex.Notes = append(ex.Notes, fmt.Sprintf("Page %d: %d items (totalPages=%d)", page, len(ex.Records), ex.TotalPages))
	return ex, nil
}

func (a *alfaCollege) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, hasTitle := rec.Get("title")
	typ, hasType := rec.Get("type")
	if !hasTitle || !hasType {
		return models.CourseFields{}, pipeline.Missing("title", "type")
	}
	return models.CourseFields{
		Title:          title,
		Type:           typ,
		Location:       rec.Value("location"),
		URL:            a.link(rec.Ptr("url")),
		EducationLevel: rec.Ptr("education_level"),
		Description:    rec.Ptr("description"),
		Duration:       rec.Ptr("duration"),
	}, nil
}
