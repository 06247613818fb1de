// database/query_api_registry.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kyipho/wikilynx/models"
)

// QueryAPIRegistry reads table_dates through a read-only /api/query endpoint,
// for deployments where the refresh job has no reader credentials of its own.
type QueryAPIRegistry struct {
	endpoint string
	client   *http.Client
}

// NewQueryAPIRegistry reads from endpoint, e.g. "http://wikilynx:8080/api/query".
// A nil client gets a 20s timeout.
func NewQueryAPIRegistry(endpoint string, client *http.Client) *QueryAPIRegistry {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &QueryAPIRegistry{endpoint: endpoint, client: client}
}

// queryAPIRow is one element of the endpoint's JSON array.
type queryAPIRow struct {
	TableName    string `json:"table_name"`
	DateInserted string `json:"date_inserted"`
}

func (r *QueryAPIRegistry) ReadDates(ctx context.Context) (map[string]models.RefreshDate, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("invalid query API URL %q: %w", r.endpoint, err))
	}
	q := u.Query()
	q.Set("query", selectRegistrySQL)
	u.RawQuery = q.Encode()

	slog.Info("Database: sending registry request to query API", "endpoint", r.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("failed to get %s: %w", r.endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("query API %s returned status code %d", r.endpoint, resp.StatusCode))
	}

	var rows []queryAPIRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("failed to decode query API response: %w", err))
	}

	records := make([]models.RegistryRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.RegistryRecord{TableName: row.TableName}
		if row.DateInserted != "" {
			// accept "2020-02-01" as well as RFC 3339 timestamps
			s := row.DateInserted
			if len(s) > len(models.DateLayout) {
				s = s[:len(models.DateLayout)]
			}
			d, err := models.ParseRefreshDate(s)
			if err != nil {
				return nil, models.NewRefreshError(models.ErrRegistryUnavailable, row.TableName, err)
			}
			rec.DateInserted = d
		}
		records = append(records, rec)
	}

	slog.Info("Database: got registry from query API", "rows", len(records))
	return recordsToDates(records), nil
}
