// database/registry_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kyipho/wikilynx/models"
)

// RegistryTable holds one row per refreshable table with the date of the dump
// currently loaded in it. Rows are created by the schema, never by the refresh.
const RegistryTable = "table_dates"

const (
	selectRegistrySQL = `SELECT table_name, date_inserted FROM table_dates`
	updateRegistrySQL = `UPDATE table_dates SET date_inserted = ? WHERE table_name = ?`
)

// RegistryStore reads table_dates over a read-only connection.
type RegistryStore struct {
	db Querier
}

func NewRegistryStore(db Querier) *RegistryStore {
	return &RegistryStore{db: db}
}

// ReadRecords returns every registry row.
func (s *RegistryStore) ReadRecords(ctx context.Context) ([]models.RegistryRecord, error) {
	if s.db == nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("database connection is not initialized"))
	}

	rows, err := s.db.QueryContext(ctx, selectRegistrySQL)
	if err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("failed to query %s: %w", RegistryTable, err))
	}
	defer rows.Close()

	var records []models.RegistryRecord
	for rows.Next() {
		var (
			name     string
			inserted sql.NullTime
		)
		if err := rows.Scan(&name, &inserted); err != nil {
			return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("failed to scan %s row: %w", RegistryTable, err))
		}
		rec := models.RegistryRecord{TableName: name}
		// a NULL date reads as "never loaded", which any source date is newer than
		if inserted.Valid {
			rec.DateInserted = models.DateOf(inserted.Time)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewRefreshError(models.ErrRegistryUnavailable, "", fmt.Errorf("error iterating %s rows: %w", RegistryTable, err))
	}

	slog.Debug("Database: read registry", "rows", len(records))
	return records, nil
}

// ReadDates returns table name -> recorded refresh date.
func (s *RegistryStore) ReadDates(ctx context.Context) (map[string]models.RefreshDate, error) {
	records, err := s.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToDates(records), nil
}

func recordsToDates(records []models.RegistryRecord) map[string]models.RefreshDate {
	dates := make(map[string]models.RefreshDate, len(records))
	for _, r := range records {
		dates[r.TableName] = r.DateInserted
	}
	return dates
}

// UpdateRegistryDate overwrites the recorded date of table. The row must exist;
// zero matched rows is an error (the admin DSN reports matched, not changed, rows).
func UpdateRegistryDate(ctx context.Context, db Execer, table string, date models.RefreshDate) error {
	if date.IsZero() {
		return fmt.Errorf("refusing to record an empty date for %s", table)
	}

	res, err := db.ExecContext(ctx, updateRegistrySQL, date.String(), table)
	if err != nil {
		return fmt.Errorf("failed to update %s for %s: %w", RegistryTable, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("no %s row for table %s", RegistryTable, table)
	}

	slog.Debug("Database: registry date updated", "table", table, "date", date.String())
	return nil
}
