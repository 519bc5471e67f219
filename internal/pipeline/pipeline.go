// Package pipeline runs the extract, load and transform stages end to end.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/iwanhae/kickoff/internal/daterange"
	"github.com/iwanhae/kickoff/internal/metrics"
	"github.com/iwanhae/kickoff/internal/objectstore"
	"github.com/iwanhae/kickoff/internal/querydef"
	"github.com/iwanhae/kickoff/internal/staging"
	"github.com/iwanhae/kickoff/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Success is what a successful trigger returns to its caller.
const Success = "Success"

// ErrUploadNotVisible is returned when a staged object cannot be found right after its upload.
var ErrUploadNotVisible = errors.New("uploaded object not found in bucket")

// Fetcher returns the event records of one date.
type Fetcher interface {
	FetchEvents(ctx context.Context, date string) ([]json.RawMessage, error)
}

// Warehouse runs the load, query and export jobs.
type Warehouse interface {
	EnsureDataset(ctx context.Context, dataset string) (bool, error)
	LoadNDJSON(ctx context.Context, dataset, table, sourceURI string) (int64, error)
	RunQuery(ctx context.Context, query, dataset, table string) (int64, error)
	ExportCSV(ctx context.Context, dataset, table, destURI string) error
}

// Options are the run parameters. Zero values are not filled in; use config.Load.
type Options struct {
	StartDate       string
	EndDate         string
	FilePrefix      string
	IncomingFolder  string
	AnalyticsFolder string
	Dataset         string
	IncomingTable   string
	TmpDir          string
	AnalyticsDir    string
	QueryFiles      []string
	Workers         int
}

// Pipeline wires a Fetcher, a Store and a Warehouse together.
type Pipeline struct {
	fetcher Fetcher
	store   objectstore.Store
	wh      Warehouse
	queries fs.FS
	logger  *zap.Logger
	opts    Options
}

// New creates a Pipeline. queries is the file system the query files are read from.
func New(fetcher Fetcher, store objectstore.Store, wh Warehouse, queries fs.FS, logger *zap.Logger, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		wh:      wh,
		queries: queries,
		logger:  logger.Named("pipeline"),
		opts:    opts,
	}
}

// Run executes one full run. The returned report is never nil, also on failure, and
// lists every unit with its outcome.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := p.logger.With(zap.String("run_id", report.RunID))
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	err := p.run(ctx, logger, report)
	if err != nil {
		metrics.Runs.WithLabelValues("failure").Inc()
		logger.Error("run failed", zap.Error(err), zap.Duration("duration", time.Since(report.StartedAt)))
		return report, err
	}
	metrics.Runs.WithLabelValues("success").Inc()
	logger.Info("run finished",
		zap.Int64("rows_loaded", report.RowsLoaded),
		zap.Duration("duration", time.Since(report.StartedAt)))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, logger *zap.Logger, report *Report) error {
	for _, dir := range []string{p.opts.TmpDir, p.opts.AnalyticsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create local directory %s: %w", dir, err)
		}
	}

	dates, err := daterange.Enumerate(p.opts.StartDate, p.opts.EndDate)
	if err != nil {
		return err
	}
	defs, err := querydef.Load(p.queries, p.opts.QueryFiles)
	if err != nil {
		return err
	}
	defNames := make([]string, len(defs))
	for i, d := range defs {
		defNames[i] = d.Name
	}

	if err := p.store.Ensure(ctx, p.opts.IncomingFolder, p.opts.AnalyticsFolder); err != nil {
		return fmt.Errorf("failed to prepare bucket: %w", err)
	}

	logger.Info("run started",
		zap.String("start", p.opts.StartDate),
		zap.String("end", p.opts.EndDate),
		zap.Int("dates", len(dates)),
		zap.Int("queries", len(defs)),
		zap.Int("workers", p.opts.Workers))

	// Extract
	units, err := p.runStage(ctx, logger, StageExtract, dates, func(ctx context.Context, i int, u *Unit) error {
		return p.extract(ctx, logger, report.RunID, dates[i], u)
	})
	report.Units = append(report.Units, units...)
	if err != nil {
		report.Units = append(report.Units, skippedUnits(StageLoad, []string{p.opts.IncomingTable})...)
		report.Units = append(report.Units, skippedUnits(StageTransform, defNames)...)
		return fmt.Errorf("extract stage failed: %w", err)
	}

	// Load
	units, err = p.runStage(ctx, logger, StageLoad, []string{p.opts.IncomingTable}, func(ctx context.Context, _ int, u *Unit) error {
		return p.load(ctx, logger, u)
	})
	report.Units = append(report.Units, units...)
	if err != nil {
		report.Units = append(report.Units, skippedUnits(StageTransform, defNames)...)
		return fmt.Errorf("load stage failed: %w", err)
	}
	report.RowsLoaded = units[0].Rows

	// Transform
	units, err = p.runStage(ctx, logger, StageTransform, defNames, func(ctx context.Context, i int, u *Unit) error {
		return p.transform(ctx, logger, defs[i], u)
	})
	report.Units = append(report.Units, units...)
	if err != nil {
		return fmt.Errorf("transform stage failed: %w", err)
	}
	return nil
}

// runStage dispatches one unit per name through a pool of opts.Workers goroutines.
// After the first failure no further unit starts; units that never started are
// reported as skipped. Every failure is collected in the returned error.
func (p *Pipeline) runStage(ctx context.Context, logger *zap.Logger, stage string, names []string, fn func(ctx context.Context, i int, u *Unit) error) ([]Unit, error) {
	start := time.Now()
	defer func() { metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds()) }()

	units := skippedUnits(stage, names)
	errs := &utils.MultiError{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have been granted after another unit failed.
			if gctx.Err() != nil {
				return nil
			}
			u := &units[i]
			unitStart := time.Now()
			err := fn(gctx, i, u)
			u.Duration = time.Since(unitStart)
			if err != nil {
				u.Status = StatusFailed
				u.Error = err.Error()
				metrics.Units.WithLabelValues(stage, string(StatusFailed)).Inc()
				logger.Error("unit failed", zap.String("stage", stage), zap.String("unit", u.Name), zap.Error(err))
				err = fmt.Errorf("%s %s: %w", stage, u.Name, err)
				errs.Add(err)
				return err
			}
			u.Status = StatusOK
			metrics.Units.WithLabelValues(stage, string(StatusOK)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	if err := errs.ErrOrNil(); err != nil {
		return units, err
	}
	if err := ctx.Err(); err != nil {
		return units, err
	}
	return units, nil
}

func (p *Pipeline) extract(ctx context.Context, logger *zap.Logger, runID, date string, u *Unit) error {
	records, err := p.fetcher.FetchEvents(ctx, date)
	if err != nil {
		return err
	}
	u.Records = len(records)

	name := staging.FileName(p.opts.FilePrefix, date)
	localPath := filepath.Join(p.opts.TmpDir, name)
	if err := staging.WriteFile(localPath, records); err != nil {
		return err
	}
	metrics.RecordsStaged.Add(float64(len(records)))

	key := objectstore.Key(p.opts.IncomingFolder, name)
	meta := map[string]string{"run_id": runID, "date": date}
	if err := p.store.Upload(ctx, key, localPath, meta); err != nil {
		metrics.Uploads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		metrics.Uploads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to confirm upload of %s: %w", key, err)
	}
	if !exists {
		metrics.Uploads.WithLabelValues("failure").Inc()
		return fmt.Errorf("%w: %s", ErrUploadNotVisible, key)
	}
	metrics.Uploads.WithLabelValues("success").Inc()
	u.Key = key
	logger.Info("file uploaded", zap.String("date", date), zap.Int("records", len(records)), zap.String("uri", p.store.URI(key)))

	return staging.Remove(logger, localPath)
}

func (p *Pipeline) load(ctx context.Context, logger *zap.Logger, u *Unit) error {
	if _, err := p.wh.EnsureDataset(ctx, p.opts.Dataset); err != nil {
		return err
	}

	source := p.store.URI(objectstore.Key(p.opts.IncomingFolder, staging.Pattern(p.opts.FilePrefix)))
	rows, err := p.wh.LoadNDJSON(ctx, p.opts.Dataset, p.opts.IncomingTable, source)
	if err != nil {
		return err
	}
	u.Rows = rows
	u.Key = source
	metrics.RowsLoaded.Set(float64(rows))
	logger.Info("rows loaded", zap.Int64("rows", rows), zap.String("source", source))
	return nil
}

func (p *Pipeline) transform(ctx context.Context, logger *zap.Logger, def querydef.QueryDefinition, u *Unit) error {
	rows, err := p.wh.RunQuery(ctx, def.SQL, p.opts.Dataset, def.Name)
	if err != nil {
		return fmt.Errorf("query %s: %w", def.File, err)
	}
	u.Rows = rows
	logger.Info("query result written", zap.String("query", def.File), zap.String("table", p.opts.Dataset+"."+def.Name))

	key := objectstore.Key(p.opts.AnalyticsFolder, def.CSVName())
	dest := p.store.URI(key)
	if err := p.wh.ExportCSV(ctx, p.opts.Dataset, def.Name, dest); err != nil {
		return err
	}
	u.Key = key
	logger.Info("query result exported", zap.String("query", def.File), zap.String("uri", dest))
	return nil
}
