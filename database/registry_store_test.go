package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyipho/wikilynx/models"
)

func TestRegistryStore_ReadDates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_name", "date_inserted"}).
		AddRow("page", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)).
		AddRow("pagelinks", time.Date(2020, 12, 20, 0, 0, 0, 0, time.UTC)).
		AddRow("category", nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectRegistrySQL)).WillReturnRows(rows)

	dates, err := NewRegistryStore(db).ReadDates(context.Background())
	require.NoError(t, err)

	assert.Len(t, dates, 3)
	assert.Equal(t, "2021-01-01", dates["page"].String())
	assert.Equal(t, "2020-12-20", dates["pagelinks"].String())
	assert.True(t, dates["category"].IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryStore_Unavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name").WillReturnError(errors.New("connection refused"))

	_, err = NewRegistryStore(db).ReadDates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRegistryUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryStore_NilDB(t *testing.T) {
	_, err := NewRegistryStore(nil).ReadDates(context.Background())
	assert.ErrorIs(t, err, models.ErrRegistryUnavailable)
}

func TestUpdateRegistryDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	date := models.NewRefreshDate(2021, time.January, 10)
	mock.ExpectExec(regexp.QuoteMeta(updateRegistrySQL)).
		WithArgs("2021-01-10", "page").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateRegistrySQL)).
		WithArgs("2021-01-10", "revision").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(updateRegistrySQL)).
		WithArgs("2021-01-10", "category").
		WillReturnError(errors.New("lock wait timeout"))

	ctx := context.Background()
	require.NoError(t, UpdateRegistryDate(ctx, db, "page", date))
	assert.ErrorContains(t, UpdateRegistryDate(ctx, db, "revision", date), "no table_dates row")
	assert.ErrorContains(t, UpdateRegistryDate(ctx, db, "category", date), "lock wait timeout")
	assert.Error(t, UpdateRegistryDate(ctx, db, "page", models.RefreshDate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecScript(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	script := "DROP TABLE IF EXISTS `page`;\nCREATE TABLE `page` (page_id int);"
	mock.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, ExecScript(ctx, db, "page", script))
	assert.Error(t, ExecScript(ctx, db, "empty", "  \n"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAPIRegistry_ReadDates(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"table_name": "page", "date_inserted": "2020-02-01"},
			{"table_name": "category", "date_inserted": "2020-03-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	dates, err := NewQueryAPIRegistry(srv.URL+"/api/query", nil).ReadDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, selectRegistrySQL, gotQuery)
	assert.Equal(t, "2020-02-01", dates["page"].String())
	assert.Equal(t, "2020-03-01", dates["category"].String())
}

func TestQueryAPIRegistry_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		case "/garbage":
			_, _ = w.Write([]byte(`{"not": "an array"`))
		case "/baddate":
			_, _ = w.Write([]byte(`[{"table_name": "page", "date_inserted": "yesterday"}]`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/down", "/garbage", "/baddate"} {
		_, err := NewQueryAPIRegistry(srv.URL+path, nil).ReadDates(context.Background())
		assert.ErrorIs(t, err, models.ErrRegistryUnavailable, path)
	}
}
