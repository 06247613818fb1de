// services/refresh_executor.go
package services

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kyipho/wikilynx/database"
	"github.com/kyipho/wikilynx/models"
	"github.com/kyipho/wikilynx/scraper"
)

// ArtifactStore is the scratch storage the executor reads dumps from and
// deletes them in.
type ArtifactStore interface {
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// RefreshExecutor applies downloaded dumps one table at a time on the run's
// transaction.
type RefreshExecutor struct {
	store  ArtifactStore
	logger *slog.Logger
}

// NewRefreshExecutor reads artifacts from store. A nil logger uses slog.Default().
func NewRefreshExecutor(store ArtifactStore, logger *slog.Logger) *RefreshExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshExecutor{store: store, logger: logger}
}

// Execute walks artifacts in order through
// PENDING -> LOADING -> LOADED -> REGISTRY_UPDATED -> CLEANED.
// The first failure marks that table FAILED and returns; later tables stay PENDING.
// Nothing is committed here.
func (e *RefreshExecutor) Execute(ctx context.Context, tx database.Execer, artifacts []scraper.Artifact, sourceDates map[string]models.RefreshDate) (models.RefreshStates, error) {
	states := make(models.RefreshStates, len(artifacts))
	for _, a := range artifacts {
		states[a.Table.Name] = models.StatePending
	}

	for _, a := range artifacts {
		date, ok := sourceDates[a.Table.Name]
		if !ok || date.IsZero() {
			_ = states.Fail(a.Table.Name)
			return states, models.NewRefreshError(models.ErrIncompleteData, a.Table.Name, fmt.Errorf("no source date for downloaded dump %s", a.Table.FileName))
		}

		if err := e.refreshTable(ctx, tx, states, a.Table, date); err != nil {
			if ferr := states.Fail(a.Table.Name); ferr != nil {
				e.logger.Error("Service: could not mark table failed", "table", a.Table.Name, "error", ferr)
			}
			return states, err
		}
		tablesRefreshed.WithLabelValues(a.Table.Name).Inc()
	}
	return states, nil
}

func (e *RefreshExecutor) refreshTable(ctx context.Context, tx database.Execer, states models.RefreshStates, td models.TableDescriptor, date models.RefreshDate) error {
	log := e.logger.With("table", td.Name, "file", td.FileName)

	if err := states.Transition(td.Name, models.StatePending, models.StateLoading); err != nil {
		return err
	}
	script, err := e.readScript(td.FileName)
	if err != nil {
		return models.NewRefreshError(models.ErrLoad, td.Name, err)
	}

	log.Info("Service: attempting to run dump script", "bytes", len(script))
	if err := database.ExecScript(ctx, tx, td.FileName, script); err != nil {
		log.Error("Service: could not execute dump script", "error", err)
		return models.NewRefreshError(models.ErrLoad, td.Name, err)
	}
	if err := states.Transition(td.Name, models.StateLoading, models.StateLoaded); err != nil {
		return err
	}
	log.Info("Service: ran dump script")

	log.Info("Service: attempting to update registry", "date", date.String())
	if err := database.UpdateRegistryDate(ctx, tx, td.Name, date); err != nil {
		log.Error("Service: could not update registry", "error", err)
		return models.NewRefreshError(models.ErrRegistryUpdate, td.Name, err)
	}
	if err := states.Transition(td.Name, models.StateLoaded, models.StateRegistryUpdated); err != nil {
		return err
	}

	log.Info("Service: attempting to delete scratch file")
	if err := e.store.Remove(td.FileName); err != nil {
		log.Error("Service: scratch file could not be deleted", "error", err)
		return models.NewRefreshError(models.ErrCleanup, td.Name, err)
	}
	if err := states.Transition(td.Name, models.StateRegistryUpdated, models.StateCleaned); err != nil {
		return err
	}
	log.Info("Service: table refreshed", "date", date.String())
	return nil
}

// readScript decompresses the whole dump into memory.
func (e *RefreshExecutor) readScript(fileName string) (string, error) {
	f, err := e.store.Open(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", fileName, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to read gzip header of %s: %w", fileName, err)
	}
	defer zr.Close()

	var sb strings.Builder
	if _, err := io.Copy(&sb, zr); err != nil {
		return "", fmt.Errorf("failed to decompress %s: %w", fileName, err)
	}
	return sb.String(), nil
}
