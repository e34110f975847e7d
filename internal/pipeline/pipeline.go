// =============================================================================
// Retail ETL - Pipeline Module
// =============================================================================
//
// This module orchestrates one batch run, from the source file to the
// dashboard summary.
//
// PIPELINE:
//   [1/4] Read the source file (CSV or XLSX)
//   [2/4] Normalize column names, synthesize missing quantity/profit,
//         validate order dates, resolve the product catalog
//   [3/4] Upsert products, then insert sales (skipped on dry runs)
//   [4/4] Aggregate and write the dashboard summary, archive the source
//
// FAILURE SEMANTICS:
//   A run either completes or stops at the first failing phase. Products
//   are committed before sales are attempted, so a failed sales phase
//   leaves products in place; a re-run converges because both phases are
//   idempotent. The summary artifact is only written after loading
//   succeeded, so it never describes data that is not in the store.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/metrics"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/store"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/summary"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/transform"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/validation"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
	"github.com/ghazalyy/RetailAnalyticsApp/pkg/utils"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Loader persists the resolved catalog and sales. *store.Store implements it.
type Loader interface {
	EnsureSchema(ctx context.Context) error
	LoadProducts(ctx context.Context, products []types.Product) (store.LoadStats, error)
	LoadSales(ctx context.Context, sales []types.Sale, policy store.ConflictPolicy) (store.LoadStats, error)
}

// SummaryWriter publishes the dashboard summary. summary.FileWriter
// implements it.
type SummaryWriter interface {
	Write(r *summary.Report) error
}

// Clock supplies the generation timestamp of the summary.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// Deps holds the collaborators of a Pipeline. Loader may be nil on dry runs;
// every other nil field gets a default.
type Deps struct {
	Loader  Loader
	Summary SummaryWriter
	Rand    transform.RandSource
	Clock   Clock
	Logger  logger.Logger

	// Metrics, when set, receives counters and phase durations and is
	// exported according to the metrics configuration.
	Metrics *metrics.Registry

	// Files writes the reject log and processing summary and archives the
	// source. Defaults to a FileManager built from the output settings.
	Files *utils.FileManager

	// Progress receives the human readable progress lines.
	Progress io.Writer
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// ProcessingStats contains statistics about a run.
type ProcessingStats struct {
	RowsRead         int
	RowsDropped      int
	QuantitiesFilled int
	ProfitsFilled    int
	Products         int
	SalesInserted    int
	SalesSkipped     int

	// SalesRepeated counts rows whose (orderId, productId) pair already
	// occurred earlier in the batch. They are listed in the reject log.
	SalesRepeated int

	// Durations holds the wall time of each phase that ran.
	Durations map[string]time.Duration

	// ProcessingTime is the time taken by the whole run.
	ProcessingTime time.Duration
}

// Result represents the outcome of a run. It is returned even when the run
// fails, filled up to the failing phase.
type Result struct {
	RunID string
	Stats ProcessingStats

	// Report is the dashboard summary, nil if the run stopped earlier.
	Report *summary.Report

	// Rejected lists the rows dropped by validation.
	Rejected []types.Rejection

	SummaryPath string
	RejectLog   string
	ArchivePath string
	RunLog      string
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs the ETL for one configuration.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	log    logger.Logger
	dryRun bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDryRun runs every phase except loading, the summary write and the
// source archival.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// New creates a Pipeline.
func New(cfg *config.Config, deps Deps, opts ...Option) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Rand == nil {
		deps.Rand = transform.NewRandSource(cfg.Synthesis.Seed)
	}
	if deps.Summary == nil {
		deps.Summary = summary.FileWriter{Path: cfg.Output.SummaryPath}
	}
	if deps.Files == nil {
		deps.Files = utils.NewFileManager(cfg.Output.LogDir, cfg.Output.ArchiveDir)
	}
	if cfg.Output.ArchiveByDate {
		deps.Files.UseTimestampSubdirs = true
	}
	if deps.Progress == nil {
		deps.Progress = io.Discard
	}

	p := &Pipeline{cfg: cfg, deps: deps, log: deps.Logger.Named("pipeline")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline once.
//
// RETURNS:
//   - The Result of the run, never nil.
//   - An error from the types taxonomy identifying the failing phase.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.deps.Clock.Now()
	res := &Result{
		RunID: uuid.NewString(),
		Stats: ProcessingStats{Durations: make(map[string]time.Duration)},
	}
	log := p.log.With(logger.String("run_id", res.RunID))

	log.Info(ctx, "run started",
		logger.String("source", p.cfg.Source.Path),
		logger.Any("dry_run", p.dryRun))

	if err := p.deps.Files.EnsureDirectories(); err != nil {
		err = fmt.Errorf("failed to prepare output directories: %w", err)
		return res, p.finish(ctx, log, res, start, err)
	}

	err := p.run(ctx, log, res)
	return res, p.finish(ctx, log, res, start, err)
}

func (p *Pipeline) run(ctx context.Context, log logger.Logger, res *Result) error {
	stats := &res.Stats
	defer p.writeRejectLog(ctx, log, res)

	// =========================================================================
	// STEP 1: READ SOURCE
	// =========================================================================

	p.progress("=== [1/4] Reading source file ===")

	var src *Source
	err := p.timed(res, types.PhaseIngest, func() (err error) {
		src, err = ReadSource(p.cfg.Source)
		return err
	})
	if err != nil {
		return err
	}
	stats.RowsRead = len(src.Records)
	p.progress("  ✓ Loaded %s (%d rows)", src.Path, stats.RowsRead)
	log.Info(ctx, "source read",
		logger.String("path", src.Path),
		logger.Int("rows", stats.RowsRead),
		logger.Any("workbook", src.Workbook))

	// =========================================================================
	// STEP 2: TRANSFORM
	// =========================================================================
	// Normalize -> synthesize -> validate -> resolve. Synthesis runs before
	// validation so that the random stream does not depend on which rows
	// are dropped.

	p.progress("=== [2/4] Transforming records ===")

	var records []types.Record
	err = p.timed(res, types.PhaseNormalize, func() (err error) {
		records, err = transform.Normalize(src.Headers, src.Records, p.cfg.Mapping)
		if err != nil {
			return err
		}
		synth := transform.NewSynthesizer(p.deps.Rand, transform.WithSettings(p.cfg.Synthesis))
		stats.QuantitiesFilled, stats.ProfitsFilled = synth.Synthesize(records)
		return nil
	})
	if err != nil {
		return err
	}
	p.progress("  -> Synthesized quantity for %d rows (%d..%d)",
		stats.QuantitiesFilled, p.cfg.Synthesis.QuantityMin, p.cfg.Synthesis.QuantityMax)
	p.progress("  -> Synthesized profit for %d rows (margin %g..%g)",
		stats.ProfitsFilled, p.cfg.Synthesis.MarginMin, p.cfg.Synthesis.MarginMax)

	var batch *types.Batch
	err = p.timed(res, types.PhaseValidate, func() (err error) {
		v := validation.NewValidator(validation.Options{AcceptExcelSerials: src.Workbook})
		batch, err = v.Validate(records)
		return err
	})
	if batch != nil {
		res.Rejected = batch.Dropped
	} else {
		var dqe *types.DataQualityError
		if errors.As(err, &dqe) {
			res.Rejected = dqe.Rejections
		}
	}
	stats.RowsDropped = len(res.Rejected)
	if err != nil {
		return err
	}
	if stats.RowsDropped > 0 {
		p.progress("  [Warning] %d rows with an invalid order date were dropped", stats.RowsDropped)
		log.Warn(ctx, "rows dropped by date validation",
			logger.Int("dropped", stats.RowsDropped),
			logger.Int("kept", batch.Len()))
	}

	var products []types.Product
	var sales []types.Sale
	err = p.timed(res, types.PhaseResolve, func() (err error) {
		products, err = transform.ResolveProducts(batch, p.cfg.Load.DefaultStock)
		if err != nil {
			return err
		}
		sales = transform.BuildSales(batch)
		return nil
	})
	if err != nil {
		return err
	}
	stats.Products = len(products)
	p.progress("  ✓ %d valid rows, %d distinct products", batch.Len(), len(products))

	if repeats := transform.RepeatedSales(batch); len(repeats) > 0 {
		stats.SalesRepeated = len(repeats)
		res.Rejected = append(res.Rejected, repeats...)
		p.progress("  [Warning] %d rows repeat an order/product pair of an earlier row", len(repeats))
		log.Warn(ctx, "order/product pairs repeated within the batch",
			logger.Int("repeated", len(repeats)),
			logger.String("policy", p.cfg.Load.SaleConflict))
	}

	// =========================================================================
	// STEP 3: LOAD
	// =========================================================================

	p.progress("=== [3/4] Loading into MySQL ===")

	if p.dryRun {
		p.progress("  (dry run, store not touched)")
	} else {
		if err := p.timed(res, types.PhaseLoad, func() error {
			return p.load(ctx, log, stats, products, sales)
		}); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	p.progress("=== [4/4] Generating dashboard summary ===")

	err = p.timed(res, types.PhaseSummary, func() error {
		res.Report = summary.Aggregate(batch, p.deps.Clock.Now())
		if p.dryRun {
			return nil
		}
		if err := p.deps.Summary.Write(res.Report); err != nil {
			return &types.ArtifactError{Path: p.cfg.Output.SummaryPath, Err: err}
		}
		res.SummaryPath = p.cfg.Output.SummaryPath
		return nil
	})
	if err != nil {
		return err
	}
	if res.SummaryPath != "" {
		p.progress("  ✓ Written %s", res.SummaryPath)
	}

	if !p.dryRun {
		archived, err := p.deps.Files.ArchiveInputFile(src.Path)
		if err != nil {
			// the data is already loaded; a stuck source only affects the next run
			log.Warn(ctx, "failed to archive source", logger.Error(err))
		} else if archived != src.Path {
			res.ArchivePath = archived
			p.progress("  ✓ Archived source to %s", archived)
		}
	}
	return nil
}

// load persists products then sales, each phase in its own transaction.
func (p *Pipeline) load(ctx context.Context, log logger.Logger, stats *ProcessingStats,
	products []types.Product, sales []types.Sale) error {
	if p.deps.Loader == nil {
		return &types.StoreError{Op: "load", Err: errors.New("no store configured")}
	}
	policy, err := store.ParsePolicy(p.cfg.Load.SaleConflict)
	if err != nil {
		return &types.StoreError{Op: "load", Err: err}
	}

	if p.cfg.Load.AutoMigrate {
		if err := p.deps.Loader.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	p.progress("  -> Upserting products...")
	ps, err := p.deps.Loader.LoadProducts(ctx, products)
	if err != nil {
		return err
	}
	p.progress("     Saved %d products", ps.Submitted)
	log.Info(ctx, "products loaded",
		logger.Int("products", ps.Submitted),
		logger.Int("chunks", ps.Chunks))

	p.progress("  -> Inserting sales...")
	ss, err := p.deps.Loader.LoadSales(ctx, sales, policy)
	if err != nil {
		return err
	}
	stats.SalesInserted = ss.Inserted
	stats.SalesSkipped = ss.Skipped
	p.progress("     Saved %d sales (%d already present, %d repeated in batch)",
		ss.Inserted, ss.Skipped, ss.Repeated)
	log.Info(ctx, "sales loaded",
		logger.Int("inserted", ss.Inserted),
		logger.Int("skipped", ss.Skipped),
		logger.Int("repeated", ss.Repeated),
		logger.String("policy", string(policy)))
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// timed runs fn as phase and records its duration.
func (p *Pipeline) timed(res *Result, phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	res.Stats.Durations[phase] += d
	if p.deps.Metrics != nil {
		p.deps.Metrics.ObservePhase(phase, d)
	}
	return err
}

func (p *Pipeline) progress(format string, args ...any) {
	fmt.Fprintf(p.deps.Progress, format+"\n", args...)
}

// writeRejectLog is best effort: the rows are also counted in the run log.
func (p *Pipeline) writeRejectLog(ctx context.Context, log logger.Logger, res *Result) {
	path, err := p.deps.Files.WriteRejectLog(res.RunID, res.Rejected)
	if err != nil {
		log.Warn(ctx, "failed to write reject log", logger.Error(err))
		return
	}
	res.RejectLog = path
}

// finish writes the processing summary and exports metrics. Neither can
// change the outcome of the run.
func (p *Pipeline) finish(ctx context.Context, log logger.Logger, res *Result, start time.Time, err error) error {
	end := p.deps.Clock.Now()
	res.Stats.ProcessingTime = end.Sub(start)

	ps := utils.ProcessingSummary{
		RunID:            res.RunID,
		SourceFile:       p.cfg.Source.Path,
		ArchivePath:      res.ArchivePath,
		SummaryPath:      res.SummaryPath,
		RejectLog:        res.RejectLog,
		DryRun:           p.dryRun,
		StartTime:        start,
		EndTime:          end,
		RowsRead:         res.Stats.RowsRead,
		RowsDropped:      res.Stats.RowsDropped,
		Products:         res.Stats.Products,
		SalesInserted:    res.Stats.SalesInserted,
		SalesSkipped:     res.Stats.SalesSkipped,
		SalesRepeated:    res.Stats.SalesRepeated,
		QuantitiesFilled: res.Stats.QuantitiesFilled,
		ProfitsFilled:    res.Stats.ProfitsFilled,
	}
	if err != nil {
		ps.Error = err.Error()
	}
	if path, werr := p.deps.Files.WriteSummaryLog(ps); werr != nil {
		log.Warn(ctx, "failed to write processing summary", logger.Error(werr))
	} else {
		res.RunLog = path
	}

	p.exportMetrics(ctx, log, res, end, err)

	if err != nil {
		log.Error(ctx, "run failed",
			logger.String("phase", types.Phase(err)),
			logger.Error(err))
		return err
	}
	log.Info(ctx, "run finished",
		logger.Int("rows_read", res.Stats.RowsRead),
		logger.Int("rows_dropped", res.Stats.RowsDropped),
		logger.Int("products", res.Stats.Products),
		logger.Int("sales_inserted", res.Stats.SalesInserted),
		logger.Int("sales_skipped", res.Stats.SalesSkipped),
		logger.Int("sales_repeated", res.Stats.SalesRepeated),
		logger.Float64("duration_seconds", res.Stats.ProcessingTime.Seconds()))
	return nil
}

func (p *Pipeline) exportMetrics(ctx context.Context, log logger.Logger, res *Result, at time.Time, runErr error) {
	m := p.deps.Metrics
	if m == nil {
		return
	}
	m.RowsRead.Add(float64(res.Stats.RowsRead))
	m.RowsDropped.Add(float64(res.Stats.RowsDropped))
	m.SalesInserted.Add(float64(res.Stats.SalesInserted))
	m.SalesSkipped.Add(float64(res.Stats.SalesSkipped))
	m.SalesRepeated.Add(float64(res.Stats.SalesRepeated))
	if !p.dryRun && runErr == nil {
		m.ProductsUpserted.Add(float64(res.Stats.Products))
	}
	m.RunFinished(runErr, at)

	if path := p.cfg.Metrics.TextfilePath; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn(ctx, "metrics export failed", logger.Error(err))
		}
	}
	if url := p.cfg.Metrics.PushURL; url != "" {
		if err := m.Push(ctx, url, p.cfg.Metrics.Job); err != nil {
			log.Warn(ctx, "metrics push failed", logger.Error(err))
		}
	}
}
