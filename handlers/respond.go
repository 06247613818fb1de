// handlers/respond.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jszwec/csvutil"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Handler: marshalling JSON response", "error", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	slog.Warn("Handler: API error", "status", code, "message", message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithCSV writes a slice of csv-tagged structs with a header row.
func respondWithCSV(w http.ResponseWriter, code int, rows any) {
	body, err := csvutil.Marshal(rows)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to encode CSV response")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
