package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyipho/wikilynx/models"
)

// listingHTML mimics the dumps.wikimedia.org autoindex page.
func listingHTML(entries map[string]string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Index of /simplewiki/latest/</title></head><body>\n")
	sb.WriteString("<h1>Index of /simplewiki/latest/</h1><hr><pre><a href=\"../\">../</a>\n")
	for _, name := range []string{
		"simplewiki-latest-page.sql.gz",
		"simplewiki-latest-pagelinks.sql.gz",
		"simplewiki-latest-category.sql.gz",
		"simplewiki-latest-categorylinks.sql.gz",
	} {
		date, ok := entries[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "<a href=\"%s\">%s</a>                 %s            50862355\n", name, name, date)
	}
	sb.WriteString("</pre><hr></body></html>\n")
	return sb.String()
}

func allEntries() map[string]string {
	return map[string]string{
		"simplewiki-latest-page.sql.gz":          "10-Jan-2021 07:57",
		"simplewiki-latest-pagelinks.sql.gz":     "10-Jan-2021 08:03",
		"simplewiki-latest-category.sql.gz":      "05-Jul-2020 07:58",
		"simplewiki-latest-categorylinks.sql.gz": "02-Jan-2021 08:01",
	}
}

func TestParseListingDate(t *testing.T) {
	d, err := ParseListingDate(" 05-Jul-2020 07:57            50862355\n")
	require.NoError(t, err)
	assert.Equal(t, models.NewRefreshDate(2020, time.July, 5), d)

	for _, bad := range []string{"", "  05-Jul-20 ", "2020-07-05 07:57", "5-Jul-2020 07:57", "xx-Jul-2020 07:57"} {
		_, err := ParseListingDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseListing_SingleLink(t *testing.T) {
	catalog, err := models.NewCatalog("x", []string{"x"})
	require.NoError(t, err)
	// the catalog names "x-latest-x.sql.gz"; the listing entry follows the dumps format
	body := `<a href="x-latest-x.sql.gz">x-latest-x.sql.gz</a> 05-Jul-2020 ...`

	dates, err := ParseListing(strings.NewReader(body), catalog)
	require.NoError(t, err)
	assert.Equal(t, "2020-07-05", dates["x"].String())
}

func TestParseListing_MissingLink(t *testing.T) {
	entries := allEntries()
	delete(entries, "simplewiki-latest-category.sql.gz")

	_, err := ParseListing(strings.NewReader(listingHTML(entries)), models.MustDefaultCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrParse)
	assert.ErrorContains(t, err, "table category")
	assert.ErrorContains(t, err, "no link for simplewiki-latest-category.sql.gz")
}

func TestParseListing_ReportsEveryBadEntry(t *testing.T) {
	entries := allEntries()
	entries["simplewiki-latest-page.sql.gz"] = "yesterday"
	entries["simplewiki-latest-categorylinks.sql.gz"] = "2021-01-02 08:01"

	_, err := ParseListing(strings.NewReader(listingHTML(entries)), models.MustDefaultCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrParse)
	assert.ErrorContains(t, err, "table page")
	assert.ErrorContains(t, err, "table categorylinks")
	assert.NotContains(t, err.Error(), "table pagelinks")
}

func TestListingProbe_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simplewiki/latest/", r.URL.Path)
		_, _ = w.Write([]byte(listingHTML(allEntries())))
	}))
	defer srv.Close()

	probe := NewListingProbe(srv.URL+"/simplewiki/latest/", 5*time.Second, nil)
	dates, err := probe.Probe(context.Background(), models.MustDefaultCatalog())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"page":          "2021-01-10",
		"pagelinks":     "2021-01-10",
		"category":      "2020-07-05",
		"categorylinks": "2021-01-02",
	}, datesToStrings(dates))
}

func TestListingProbe_SourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewListingProbe(srv.URL+"/", 5*time.Second, nil).Probe(context.Background(), models.MustDefaultCatalog())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)

	srv.Close()
	_, err = NewListingProbe(srv.URL+"/", 5*time.Second, nil).Probe(context.Background(), models.MustDefaultCatalog())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func datesToStrings(in map[string]models.RefreshDate) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.String()
	}
	return out
}
