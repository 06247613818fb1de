// database/query_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kyipho/wikilynx/models"
	"github.com/kyipho/wikilynx/utils"
)

// MaxRows caps every API response.
const MaxRows = 100

// QueryStore serves the read-only API endpoints.
type QueryStore struct {
	db *sql.DB
}

func NewQueryStore(db *sql.DB) *QueryStore {
	return &QueryStore{db: db}
}

// Ping checks the reader connection.
func (s *QueryStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return s.db.PingContext(ctx)
}

// RunQuery executes a caller-supplied statement and returns at most limit rows
// as column -> value maps. Access control is the reader user's privileges.
func (s *QueryStore) RunQuery(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out, err := scanMaps(rows, limit)
	if err != nil {
		return nil, err
	}
	slog.Info("Database: executed API query", "query", query, "rows", len(out))
	return out, nil
}

func scanMaps(rows *sql.Rows, limit int) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	// DATE and DATETIME both scan as time.Time
	dbTypes := make([]string, len(cols))
	for i, ct := range colTypes {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	out := []map[string]any{}
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = utils.NormalizeColumn(vals[i], dbTypes[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Categories queries tbl_2b with optional equality filters, ordered by rank.
func (s *QueryStore) Categories(ctx context.Context, f models.CategoryFilter, limit int) ([]models.CategoryRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT category_id, category_title, category_rank, page_count FROM tbl_2b WHERE TRUE")
	for _, c := range []struct {
		col, val string
	}{
		{"category_id", f.CategoryID},
		{"category_title", f.CategoryTitle},
		{"category_rank", f.CategoryRank},
	} {
		if c.val == "" {
			continue
		}
		sb.WriteString(" AND " + c.col + " = ?")
		args = append(args, c.val)
	}
	sb.WriteString(" ORDER BY category_rank LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var result []models.CategoryRow
	for rows.Next() {
		var (
			r     models.CategoryRow
			title []byte // varbinary in the dump schema
		)
		if err := rows.Scan(&r.CategoryID, &title, &r.CategoryRank, &r.PageCount); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		r.CategoryTitle = string(title)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	slog.Info("Database: retrieved categories", "rows", len(result))
	return result, nil
}
