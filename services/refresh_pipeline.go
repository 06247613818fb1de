// services/refresh_pipeline.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kyipho/wikilynx/models"
	"github.com/kyipho/wikilynx/scraper"
)

// SourceProbe reads published dump dates.
type SourceProbe interface {
	Probe(ctx context.Context, catalog *models.Catalog) (map[string]models.RefreshDate, error)
}

// RegistryReader reads recorded dump dates.
type RegistryReader interface {
	ReadDates(ctx context.Context) (map[string]models.RefreshDate, error)
}

// Fetcher downloads the dumps of stale tables.
type Fetcher interface {
	Fetch(ctx context.Context, catalog *models.Catalog, flags models.StalenessFlags) ([]scraper.Artifact, error)
}

// Sweeper removes leftover scratch files.
type Sweeper interface {
	Sweep(names []string) ([]string, error)
}

// Opener opens a fresh admin connection for one run. The pipeline closes it.
type Opener func(ctx context.Context) (*sql.DB, error)

// RefreshPipeline is one refresh invocation: probe, compare, fetch, apply,
// cascade, commit. Every dependency is required.
type RefreshPipeline struct {
	Catalog  *models.Catalog
	Probe    SourceProbe
	Registry RegistryReader
	Fetcher  Fetcher
	Scratch  Sweeper
	Executor *RefreshExecutor
	Cascade  *CascadeRunner
	Open     Opener
	Logger   *slog.Logger
}

func (p *RefreshPipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *RefreshPipeline) validate() error {
	switch {
	case p.Catalog == nil:
		return errors.New("refresh pipeline: no catalog")
	case p.Probe == nil:
		return errors.New("refresh pipeline: no source probe")
	case p.Registry == nil:
		return errors.New("refresh pipeline: no registry reader")
	case p.Fetcher == nil:
		return errors.New("refresh pipeline: no fetcher")
	case p.Scratch == nil:
		return errors.New("refresh pipeline: no scratch storage")
	case p.Executor == nil:
		return errors.New("refresh pipeline: no executor")
	case p.Cascade == nil:
		return errors.New("refresh pipeline: no cascade runner")
	case p.Open == nil:
		return errors.New("refresh pipeline: no connection opener")
	}
	return nil
}

// Check compares published and recorded dates without changing anything.
func (p *RefreshPipeline) Check(ctx context.Context) (source, registry map[string]models.RefreshDate, flags models.StalenessFlags, err error) {
	log := p.logger()

	source, err = p.Probe.Probe(ctx, p.Catalog)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err = p.Registry.ReadDates(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	observeDates(sourceDate, source)
	observeDates(registryDate, registry)
	log.Info("Service: last refresh dates", "source", source, "registry", registry)

	flags, err = EvaluateStaleness(p.Catalog, source, registry)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("Service: tables needing an update", "needs_update", map[string]bool(flags))
	return source, registry, flags, nil
}

// Status is Check shaped as a per-table report.
func (p *RefreshPipeline) Status(ctx context.Context) ([]models.TableStatus, error) {
	if p.Catalog == nil || p.Probe == nil || p.Registry == nil {
		return nil, errors.New("refresh pipeline: status needs a catalog, a probe and a registry reader")
	}
	source, registry, flags, err := p.Check(ctx)
	if err != nil {
		return nil, err
	}
	return StatusReport(p.Catalog, source, registry, flags), nil
}

// Run performs one refresh. Changes are committed only when every stale table
// was applied and the cascade succeeded; on any error the transaction is
// rolled back, leftover scratch files are swept and the typed error returned.
// When nothing is stale no connection is opened.
func (p *RefreshPipeline) Run(ctx context.Context) (report *models.RunReport, err error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report = &models.RunReport{RunID: uuid.NewString(), StartedAt: start.UTC()}
	log := p.logger().With("run_id", report.RunID)
	fileNames := lo.Map(p.Catalog.Tables(), func(td models.TableDescriptor, _ int) string { return td.FileName })

	defer func() {
		report.FinishedAt = time.Now().UTC()
		refreshDuration.Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
			refreshRuns.WithLabelValues("failed").Inc()
			refreshErrors.WithLabelValues(kindLabel(err)).Inc()
			log.Error("Service: refresh run failed", "error", err)
			p.sweep(log, fileNames)
		case report.Committed:
			refreshRuns.WithLabelValues("committed").Inc()
			log.Info("Service: refresh run committed", "tables", report.Downloaded)
		default:
			refreshRuns.WithLabelValues("noop").Inc()
			log.Info("Service: refresh run finished, nothing to update")
		}
	}()

	// files from a run that died without cleaning up
	if removed, err := p.Scratch.Sweep(fileNames); err != nil {
		return report, models.NewRefreshError(models.ErrCleanup, "", fmt.Errorf("failed to clear scratch storage: %w", err))
	} else if len(removed) > 0 {
		log.Warn("Service: removed leftover scratch files", "files", removed)
	}

	report.SourceDates, report.RegistryDates, report.NeedsUpdate, err = p.Check(ctx)
	if err != nil {
		return report, err
	}

	artifacts, err := p.Fetcher.Fetch(ctx, p.Catalog, report.NeedsUpdate)
	if err != nil {
		return report, err
	}
	report.Downloaded = lo.Map(artifacts, func(a scraper.Artifact, _ int) string { return a.Table.Name })
	if len(artifacts) == 0 {
		return report, nil
	}

	db, err := p.Open(ctx)
	if err != nil {
		return report, models.NewRefreshError(models.ErrConnection, "", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Debug("Service: closing run connection", "error", cerr)
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return report, models.NewRefreshError(models.ErrConnection, "", fmt.Errorf("failed to begin transaction: %w", err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			log.Error("Service: rollback failed", "error", rerr)
		}
	}()

	report.States, err = p.Executor.Execute(ctx, tx, artifacts, report.SourceDates)
	if err != nil {
		return report, err
	}

	if err = p.Cascade.Run(ctx, tx); err != nil {
		// DDL in the dumps commits implicitly, so the rollback cannot undo them
		log.Error("Service: cascade failed after tables were loaded; registry dates may already be committed and the next run will not retry the cascade until a newer dump is published",
			"tables", report.Downloaded,
			"error", err,
		)
		return report, err
	}
	report.CascadeRan = true

	// commit changes to database only if nothing failed
	if err = tx.Commit(); err != nil {
		return report, models.NewRefreshError(models.ErrCommit, "", err)
	}
	committed = true
	report.Committed = true
	return report, nil
}

// sweep is best effort; the run has already failed.
func (p *RefreshPipeline) sweep(log *slog.Logger, names []string) {
	removed, err := p.Scratch.Sweep(names)
	if err != nil {
		log.Error("Service: could not remove scratch files after failure", "error", err)
	}
	if len(removed) > 0 {
		log.Info("Service: removed scratch files after failure", "files", removed)
	}
}
