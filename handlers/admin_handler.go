// handlers/admin_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/kyipho/wikilynx/models"
)

// Staleness reports per-table dates and flags without changing anything.
// GET /api/admin/staleness
func (a *API) Staleness(w http.ResponseWriter, r *http.Request) {
	status, err := a.refresher.Status(r.Context())
	if err != nil {
		respondWithRefreshError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// Refresh runs one pipeline invocation in-process.
// POST /api/admin/refresh; 409 while another refresh is running.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	if !a.refreshMu.TryLock() {
		respondWithError(w, http.StatusConflict, "A refresh is already running")
		return
	}
	defer a.refreshMu.Unlock()

	// a dropped client must not abort a half-applied transaction
	ctx := context.WithoutCancel(r.Context())
	a.logger.Info("Handler: refresh requested", "remote", r.RemoteAddr)

	report, err := a.refresher.Run(ctx)
	if err != nil {
		a.logger.Error("Handler: refresh failed", "error", err)
		respondWithRefreshError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func respondWithRefreshError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	if kind := models.ErrorKind(err); kind != nil {
		body["kind"] = kind.Error()
	}
	respondWithJSON(w, http.StatusInternalServerError, body)
}
