// handlers/query_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/kyipho/wikilynx/database"
	"github.com/kyipho/wikilynx/models"
)

// Health pings the read-only database.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.Error("Handler: health check failed", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "database connection error"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "wikilynx is healthy"})
}

// Query runs GET /api/query?query=... with the reader's privileges.
func (a *API) Query(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'query' parameter")
		return
	}

	rows, err := a.store.RunQuery(r.Context(), query, database.MaxRows)
	if err != nil {
		a.logger.Warn("Handler: query failed", "query", query, "error", err)
		respondWithError(w, http.StatusBadRequest, "Query failed")
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	respondWithJSON(w, http.StatusOK, rows)
}

// Category serves GET /api/category, filtered by any of category_id,
// category_title and category_rank. format=csv switches the encoding.
func (a *API) Category(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CategoryFilter{
		CategoryID:    q.Get("category_id"),
		CategoryTitle: q.Get("category_title"),
		CategoryRank:  q.Get("category_rank"),
	}

	rows, err := a.store.Categories(r.Context(), filter, database.MaxRows)
	if err != nil {
		a.logger.Error("Handler: category lookup failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	if rows == nil {
		rows = []models.CategoryRow{}
	}

	switch strings.ToLower(q.Get("format")) {
	case "", "json":
		respondWithJSON(w, http.StatusOK, rows)
	case "csv":
		respondWithCSV(w, http.StatusOK, rows)
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid format. Use 'json' or 'csv'.")
	}
}
