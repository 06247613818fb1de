// scraper/listing_probe.go
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/kyipho/wikilynx/models"
)

// The listing prints "05-Jul-2020 07:57   50862355" after each link; only the
// leading date token is read.
const (
	listingDateLayout = "02-Jan-2006"
	listingDateWidth  = len(listingDateLayout)
)

// ParseListingDate reads the date at the start of the text that follows a file
// link in a dumps directory index. Exactly the first 11 characters of the
// trimmed text are interpreted.
func ParseListingDate(siblingText string) (models.RefreshDate, error) {
	s := strings.TrimSpace(siblingText)
	if len(s) < listingDateWidth {
		return models.RefreshDate{}, fmt.Errorf("text %q is shorter than a %s date", s, listingDateLayout)
	}
	t, err := time.Parse(listingDateLayout, s[:listingDateWidth])
	if err != nil {
		return models.RefreshDate{}, fmt.Errorf("failed to parse date %q: %w", s[:listingDateWidth], err)
	}
	return models.DateOf(t), nil
}

// ListingProbe reads last-modified dates of the catalog's dump files from the
// dumps directory index.
type ListingProbe struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewListingProbe probes baseURL. A nil logger uses slog.Default().
func NewListingProbe(baseURL string, timeout time.Duration, logger *slog.Logger) *ListingProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingProbe{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Probe fetches the index and returns table name -> published date.
// It fails with ErrSourceUnavailable when the index cannot be fetched and
// with ErrParse when any expected file is missing or carries no readable date.
func (p *ListingProbe) Probe(ctx context.Context, catalog *models.Catalog) (map[string]models.RefreshDate, error) {
	p.logger.Info("Scraper: sending request to dumps listing", "url", p.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrSourceUnavailable, "", err)
	}
	res, err := p.client.Do(req)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrSourceUnavailable, "", fmt.Errorf("failed to get URL %s: %w", p.baseURL, err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, models.NewRefreshError(models.ErrSourceUnavailable, "", fmt.Errorf("failed to get URL %s: status code %d", p.baseURL, res.StatusCode))
	}
	p.logger.Info("Scraper: got response from dumps listing")

	dates, err := ParseListing(res.Body, catalog)
	if err != nil {
		return nil, err
	}
	for _, name := range catalog.Names() {
		p.logger.Info("Scraper: found source date", "table", name, "date", dates[name].String())
	}
	return dates, nil
}

// ParseListing extracts the date of every catalog file from an HTML index.
// Every file is examined; all failures are reported together.
func ParseListing(r io.Reader, catalog *models.Catalog) (map[string]models.RefreshDate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrParse, "", fmt.Errorf("failed to parse listing HTML: %w", err))
	}

	dates := make(map[string]models.RefreshDate)
	var errs []error
	for _, td := range catalog.Tables() {
		d, err := dateForFile(doc, td.FileName)
		if err != nil {
			errs = append(errs, models.NewRefreshError(models.ErrParse, td.Name, err))
			continue
		}
		dates[td.Name] = d
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return dates, nil
}

func dateForFile(doc *goquery.Document, fileName string) (models.RefreshDate, error) {
	link := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == fileName
	}).First()
	if link.Length() == 0 {
		return models.RefreshDate{}, fmt.Errorf("no link for %s in listing", fileName)
	}

	next := link.Nodes[0].NextSibling
	if next == nil || next.Type != html.TextNode {
		return models.RefreshDate{}, fmt.Errorf("no date text after link for %s", fileName)
	}
	d, err := ParseListingDate(next.Data)
	if err != nil {
		return models.RefreshDate{}, fmt.Errorf("%s: %w", fileName, err)
	}
	return d, nil
}
