package institutions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/internal/store"
	"github.com/law-makers/uniscrape/pkg/models"
)

// normalizeAll runs a strategy's extract and normalize steps over body,
// returning accepted courses and the rejections.
func normalizeAll(t *testing.T, s pipeline.Strategy, page int, body string) ([]models.CourseFields, []error) {
	t.Helper()
	ex, err := s.Extract(page, &fetch.Response{StatusCode: 200, Body: []byte(body)})
	require.NoError(t, err)

	var out []models.CourseFields
	var rejected []error
	for _, rec := range ex.Records {
		f, err := s.Normalize(rec)
		switch {
		case errors.Is(err, pipeline.ErrSkip):
		case err != nil:
			rejected = append(rejected, err)
		default:
			out = append(out, f)
		}
	}
	return out, rejected
}

func courseTitles(fs []models.CourseFields) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Title)
	}
	return out
}

func strategy(t *testing.T, slug string, opts Options) pipeline.Strategy {
	t.Helper()
	s, err := New(slug, opts)
	require.NoError(t, err)
	return s
}

func TestRegistry(t *testing.T) {
	want := []string{"alfacollege", "drenthe-college", "hanze", "nhl-stenden", "noorderpoort", "ou", "rug", "windesheim"}
	if diff := cmp.Diff(want, Slugs()); diff != "" {
		t.Errorf("Slugs() mismatch (-want +got):\n%s", diff)
	}

	for _, slug := range Slugs() {
		s := strategy(t, slug, Options{})
		inst := s.Site().Institution
		assert.Equal(t, slug, inst.Slug)
		assert.NotEmpty(t, inst.Name, slug)
		assert.NotEmpty(t, inst.City, slug)
		assert.NotEmpty(t, inst.Website, slug)
	}

	_, err := New("nope", Options{})
	assert.ErrorIs(t, err, ErrUnknownInstitution)

	seeds := Seeds()
	require.Len(t, seeds, len(want))
	assert.Equal(t, "alfacollege", seeds[0].Slug)
}

func TestOptionsOverride(t *testing.T) {
	delay := 5 * time.Millisecond
	s := strategy(t, "hanze", Options{
		BaseURL:   "http://127.0.0.1:9999",
		PageDelay: &delay,
		Render:    true,
		Headers:   map[string]string{"Accept": "text/plain"},
	})

	assert.Equal(t, delay, s.Site().Pagination.PageDelay)
	req := s.Request(3)
	assert.Equal(t, "http://127.0.0.1:9999/services/education-facetednavigation", req.URL)
	assert.Equal(t, "3", req.Query.Get("page"))
	assert.Equal(t, "text/plain", req.Headers["Accept"])
	assert.Equal(t, "XMLHttpRequest", req.Headers["X-Requested-With"])
	assert.True(t, req.Render)
}

func TestSitePolicies(t *testing.T) {
	tests := []struct {
		slug   string
		policy models.UpdatePolicy
		mode   pipeline.PageMode
		first  int
	}{
		{"hanze", models.PolicyUpsert, pipeline.KnownTotal, 1},
		{"nhl-stenden", models.PolicyUpsert, pipeline.KnownTotal, 0},
		{"windesheim", models.PolicyUpsert, pipeline.SinglePage, 1},
		{"rug", models.PolicyUpsert, pipeline.KnownTotal, 1},
		{"alfacollege", models.PolicyReplace, pipeline.KnownTotal, 1},
		{"ou", models.PolicyReplace, pipeline.ProbeUntilEmpty, 1},
		{"drenthe-college", models.PolicyReplace, pipeline.SinglePage, 1},
		{"noorderpoort", models.PolicyReplace, pipeline.KnownTotal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			site := strategy(t, tt.slug, Options{}).Site()
			assert.Equal(t, tt.policy, site.Policy)
			assert.Equal(t, tt.mode, site.Pagination.Mode)
			assert.Equal(t, tt.first, site.Pagination.First)
		})
	}
}

func TestHanze(t *testing.T) {
	s := strategy(t, "hanze", Options{})
	body := `{"totalPages":3,"results":[
		{"title":"Nursing","url":"/en/study/nursing","labels":["Bachelor","Full-time"]},
		{"title":"Energy","url":"/en/study/energy","labels":["Part-time","Master"]},
		{"title":"Summer School","labels":["Course"]}
	]}`

	ex, err := s.Extract(1, &fetch.Response{Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, 3, ex.TotalPages)

	courses, rejected := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 2)
	assert.Equal(t, "Bachelor", courses[0].Type)
	assert.Equal(t, "Master", courses[1].Type)
	assert.Equal(t, "https://www.hanze.nl/en/study/nursing", models.Deref(courses[0].URL))
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0], pipeline.ErrMissingField)
}

func TestNHLStenden(t *testing.T) {
	s := strategy(t, "nhl-stenden", Options{})
	assert.Equal(t, "0", s.Request(0).Query.Get("page"))

	body := `<html><body>
	<div class="node__content">
		<h3 class="node__title"><span class="field--name-title">International Business</span></h3>
		<div class="node__content-row"><div class="field--name-field-education-level">Bachelor</div></div>
		<div class="field--name-field-locations"><div class="field__items"><div>Leeuwarden</div><div>Emmen</div></div></div>
	</div>
	<div class="node__content">
		<h3 class="node__title"><span class="field--name-title">No Level</span></h3>
	</div>
	<div class="node__content"><p>teaser without title</p></div>
	</body></html>`

	courses, rejected := normalizeAll(t, s, 0, body)
	require.Len(t, courses, 1)
	assert.Equal(t, models.CourseFields{
		Title:    "International Business",
		Type:     "Bachelor",
		Location: "Leeuwarden, Emmen",
	}, courses[0])
	require.Len(t, rejected, 1)
}

func TestWindesheim(t *testing.T) {
	s := strategy(t, "windesheim", Options{})
	body := `<ul>
	<li class="card--study"><h2 class="title">Verpleegkunde</h2>
		<ul class="list--icons"><li>Voltijd</li><li>Bachelor</li></ul>
		<a href="/opleidingen/hbo-bachelor/verpleegkunde">Bekijk</a></li>
	<li class="card--study"><h2 class="title">Leraar Engels</h2>
		<ul class="list--icons"><li>Deeltijd Master</li></ul></li>
	<li class="card--study"><h2 class="title">Coach</h2>
		<ul class="list--icons"><li>Cursus</li></ul></li>
	</ul>`

	courses, rejected := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 2)
	assert.Equal(t, "Bachelor", courses[0].Type)
	assert.Equal(t, "Zwolle", courses[0].Location)
	assert.Equal(t, "https://www.windesheim.nl/opleidingen/hbo-bachelor/verpleegkunde", models.Deref(courses[0].URL))
	assert.Equal(t, "Master", courses[1].Type)
	assert.Nil(t, courses[1].URL)
	assert.Len(t, rejected, 1)
}

func TestWindesheim_FallbackCards(t *testing.T) {
	s := strategy(t, "windesheim", Options{})
	body := `<div class="card--study"><h2 class="title">Post-hbo Coaching</h2><ul class="list--icons"><li>Post-hbo</li></ul></div>`

	courses, _ := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 1)
	assert.Equal(t, "Post-hbo", courses[0].Type)
}

func TestRUG(t *testing.T) {
	s := strategy(t, "rug", Options{})
	assert.Equal(t, "https://www.rug.nl/bachelors/alphabet", s.Request(1).URL)
	assert.Equal(t, "https://www.rug.nl/masters/alphabetical", s.Request(2).URL)

	bachelors := `<ul class="rug-list--bullets">
		<li class="rug-list--bullets__item"><h2>A</h2></li>
		<li class="rug-list--bullets__item"><div><a href="/bachelors/astronomy">Astronomy</a></div></li>
		<li class="rug-list--bullets__item"><div><a href="/brochure">Create your own brochure!</a></div></li>
		<li class="rug-list--bullets__item"><div>Arts and Culture</div></li>
	</ul>`
	courses, rejected := normalizeAll(t, s, 1, bachelors)
	assert.Empty(t, rejected)
	assert.Equal(t, []string{"Astronomy", "Arts and Culture"}, courseTitles(courses))
	assert.Equal(t, "Bachelor", courses[0].Type)
	assert.Equal(t, "https://www.rug.nl/bachelors/astronomy", models.Deref(courses[0].URL))

	masters := `<ul class="rug-list--bullets">
		<li class="rug-list--bullets__item"><p><a href="/masters/ai">Artificial Intelligence</a></p></li>
		<li class="rug-list--bullets__item"><div><a href="/masters/ai-profile">Profile Artificial Intelligence</a></div></li>
		<li class="rug-list--bullets__item"><div><a href="/x">Stel je eigen brochure samen!</a></div></li>
	</ul>`
	courses, rejected = normalizeAll(t, s, 2, masters)
	assert.Empty(t, rejected)
	assert.Equal(t, []string{"Artificial Intelligence", "Artificial Intelligence"}, courseTitles(courses))
	assert.Equal(t, "Master", courses[0].Type)
	assert.True(t, s.Site().Dedup)
}

func TestAlfaCollege(t *testing.T) {
	s := strategy(t, "alfacollege", Options{})
	req := s.Request(2)
	assert.Equal(t, "2", req.Query.Get("currentPage"))
	assert.True(t, req.Query.Has("q"))
	assert.Equal(t, "https://www.alfa-college.nl/mbo-opleidingen", req.Headers["Referer"])

	body := `{"totalPages":4,"items":[
		{"title":"Kok","type":"BOL","educationLevel":"Niveau 2","location":"Groningen","lead":"Koken","url":"/opleidingen/kok","duration":"2 jaar"},
		{"title":"Zonder type"}
	]}`
	ex, err := s.Extract(1, &fetch.Response{Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, 4, ex.TotalPages)

	courses, rejected := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 1)
	assert.Equal(t, models.CourseFields{
		Title:          "Kok",
		Type:           "BOL",
		Location:       "Groningen",
		URL:            models.StringPtr("https://www.alfa-college.nl/opleidingen/kok"),
		EducationLevel: models.StringPtr("Niveau 2"),
		Description:    models.StringPtr("Koken"),
		Duration:       models.StringPtr("2 jaar"),
	}, courses[0])
	require.Len(t, rejected, 1)
}

func TestOU(t *testing.T) {
	s := strategy(t, "ou", Options{})
	assert.Equal(t, "20", s.Request(1).Query.Get("items_per_page"))

	body := `<div class="list">
	<div class="list__item__container"><a href="/bachelor-rechtsgeleerdheid">
		<span class="list__item__title">Rechtsgeleerdheid</span>
		<span class="list__item__description">Bachelor | 180 EC</span>
		<div class="list__item__content">Word jurist.</div></a></div>
	<div class="list__item__container"><a href="/webinar">
		<span class="list__item__title">Webinar</span>
		<span class="list__item__description">Gratis</span></a></div>
	</div>`

	courses, rejected := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 1)
	assert.Equal(t, "Bachelor", courses[0].Type)
	assert.Equal(t, "180 EC", models.Deref(courses[0].EducationLevel))
	assert.Equal(t, "Word jurist.", models.Deref(courses[0].Description))
	assert.Equal(t, "https://www.ou.nl/bachelor-rechtsgeleerdheid", models.Deref(courses[0].URL))
	assert.Len(t, rejected, 1)

	ex, err := s.Extract(5, &fetch.Response{Body: []byte(`<html><body></body></html>`)})
	require.NoError(t, err)
	assert.Empty(t, ex.Records)
}

func TestDrentheCollege(t *testing.T) {
	s := strategy(t, "drenthe-college", Options{})
	body := `<nav>
	<div class="navigationItem"><a href="/opleidingen/bol/verzorgende"><span class="btn-text">Verzorgende IG</span></a></div>
	<div class="navigationItem"><a href="/opleidingen/bbl/lasser"><span class="btn-text">Lasser</span></a></div>
	<div class="navigationItem"><a href="/opleidingen/entree"><span class="btn-text">Entree BOL</span></a></div>
	<div class="navigationItem"><a href="/opleidingen/overig"><span class="btn-text">Kapper</span></a></div>
	<div class="navigationItem"><a href="/opleidingen/"><span class="btn-text">Alle opleidingen</span></a></div>
	<div class="navigationItem"><a href="/bol"><span class="btn-text">Wat is BOL?</span></a></div>
	</nav>`

	courses, rejected := normalizeAll(t, s, 1, body)
	assert.Empty(t, rejected)
	got := map[string]string{}
	for _, c := range courses {
		got[c.Title] = c.Type
		assert.Equal(t, "Emmen", c.Location)
	}
	assert.Equal(t, map[string]string{
		"Verzorgende IG": "BOL",
		"Lasser":         "BBL",
		"Entree BOL":     "BOL",
		"Kapper":         "MBO",
	}, got)
}

func TestNoorderpoort(t *testing.T) {
	s := strategy(t, "noorderpoort", Options{})
	req := s.Request(1)
	assert.Equal(t, "https://noorderpoort.nl/programmes/nl-NL/1199", req.URL)
	assert.Equal(t, "cors", req.Headers["Sec-Fetch-Mode"])

	body := `{"totalPages":2,"items":[
		{"title":"Kapper","tag":"BBL","level":"Niveau 3","urls":[{"label":"x"},{"url":"/opleidingen/kapper"}]},
		{"title":"Verpleegkunde BOL","tag":"BBL","location":"Assen"},
		{"title":"Entree"},
		{"tag":"BOL"}
	]}`
	courses, rejected := normalizeAll(t, s, 1, body)
	require.Len(t, courses, 3)
	assert.Equal(t, "BBL", courses[0].Type)
	assert.Equal(t, "https://www.noorderpoort.nl/opleidingen/kapper", models.Deref(courses[0].URL))
	assert.Equal(t, "Niveau 3", models.Deref(courses[0].EducationLevel))
	assert.Equal(t, "Groningen", courses[0].Location)
	assert.Equal(t, "BOL", courses[1].Type)
	assert.Equal(t, "Assen", courses[1].Location)
	assert.Equal(t, "MBO", courses[2].Type)
	assert.Len(t, rejected, 1)

	override := strategy(t, "noorderpoort", Options{BaseURL: "http://localhost:1234"})
	courses, _ = normalizeAll(t, override, 1, body)
	assert.Equal(t, "http://localhost:1234/opleidingen/kapper", models.Deref(courses[0].URL))
}

// End to end against a local copy of the NHL Stenden overview
func TestNHLStenden_Run(t *testing.T) {
	pages := map[string]string{
		"0": `<div class="node__content"><h3 class="node__title"><span class="field--name-title">Tourism</span></h3>
			<div class="node__content-row"><div class="field--name-field-education-level">Bachelor</div></div></div>`,
		"1": `<div class="node__content"><h3 class="node__title"><span class="field--name-title">Leadership</span></h3>
			<div class="node__content-row"><div class="field--name-field-education-level">Master</div></div></div>`,
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/en/courses" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}))
	defer ts.Close()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var zero time.Duration
	s := strategy(t, "nhl-stenden", Options{BaseURL: ts.URL, PageDelay: &zero})
	runner := pipeline.NewRunner(db, fetch.NewClient(nil, nil, fetch.Options{}), pipeline.Options{})
	rep := runner.Run(context.Background(), s)

	assert.Empty(t, rep.Errors)
	assert.Equal(t, 2, rep.PagesScraped)
	assert.Equal(t, 2, rep.CoursesProcessed)
	require.Len(t, rep.Courses, 2)
	assert.Equal(t, "Leadership", rep.Courses[0].Title)
	assert.Equal(t, "Leeuwarden", rep.Courses[0].Location)
}
