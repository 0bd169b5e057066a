package institutions

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/extract"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/pkg/models"
)

type rugListing struct {
	path string
	typ  string
}

// rugListings are the two alphabetical overviews; the page number picks one
var rugListings = []rugListing{
	{"/bachelors/alphabet", "Bachelor"},
	{"/masters/alphabetical", "Master"},
}

var rugIgnored = map[string]bool{
	"Create your own brochure!":    true,
	"Stel je eigen brochure samen!": true,
}

// rug walks the bachelor and master A-Z lists. Specialisations appear as
// "Profile ..." entries under their parent and collapse into one title.
type rug struct {
	base
}

func newRUG(opts Options) pipeline.Strategy {
	site := pipeline.Site{
		Institution: models.Institution{
			Slug:    "rug",
			Name:    "University of Groningen",
			City:    "Groningen",
			Website: "https://www.rug.nl",
		},
		Policy: models.PolicyUpsert,
		Pagination: pipeline.Pagination{
			Mode:      pipeline.KnownTotal,
			First:     1,
			Pages:     len(rugListings),
			PageDelay: 500 * time.Millisecond,
		},
		Dedup: true,
	}
	return &rug{base: newBase(site, "https://www.rug.nl", browserHeaders(), opts)}
}

func (r *rug) Request(page int) fetch.Request {
	return r.request(listingFor(page).path, nil)
}

func listingFor(page int) rugListing {
	i := page - 1
	if i < 0 || i >= len(rugListings) {
		i = 0
	}
	return rugListings[i]
}

func (r *rug) Extract(page int, resp *fetch.Response) (*pipeline.Extraction, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	listing := listingFor(page)
	ex := &pipeline.Extraction{}
	items := doc.Find("ul.rug-list--bullets > li.rug-list--bullets__item")
	ex.Notes = append(ex.Notes, fmt.Sprintf("Found %d %s list items", items.Length(), listing.typ))

	items.Each(func(_ int, item *goquery.Selection) {
		// Letter headings share the list markup
		if extract.Has(item, "h2") {
			return
		}

		link := item.Find("div > a").First()
		if link.Length() == 0 && listing.typ == "Master" {
			link = item.Find("p > a").First()
		}

		rec := extract.NewRecord()
		if link.Length() > 0 {
			rec.Set("title", extract.Text(link, ""))
			rec.Set("url", extract.Attr(link, "", "href"))
		}
		if _, ok := rec.Get("title"); !ok {
			rec.Set("title", extract.Text(item, "div"))
		}
		rec.SetString("type", listing.typ)
		ex.Records = append(ex.Records, rec)
	})
	return ex, nil
}

func (r *rug) Normalize(rec extract.Record) (models.CourseFields, error) {
	title, ok := rec.Get("title")
	if !ok || rugIgnored[title] {
		return models.CourseFields{}, pipeline.ErrSkip
	}
	title = pipeline.StripPrefix(title, "Profile")
	if title == "" {
		return models.CourseFields{}, pipeline.ErrSkip
	}
	return models.CourseFields{
		Title:    title,
		Type:     rec.Value("type"),
		Location: "Groningen",
		URL:      r.link(rec.Ptr("url")),
	}, nil
}
