package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// evaluateFile is the comparison summary DSSAT writes next to the outputs.
const evaluateFile = "EVALUATE.OUT"

// maxParallelReads bounds concurrent output-file parsing per request.
const maxParallelReads = 4

// FileSource parses DSSAT data files. Missing or unreadable files yield
// empty results.
type FileSource interface {
	Output(path string) *domain.Dataset
	Observed(path string) *domain.Dataset
	Evaluate(path string) *domain.Dataset
	Treatments(path string) []domain.Treatment
}

// Evaluator compares simulated output against observed data for a request.
// It implements Transformer.
type Evaluator struct {
	catalog domain.CropCatalog
	files   FileSource
	dict    domain.Dictionary
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(catalog domain.CropCatalog, files FileSource, dict domain.Dictionary, logger *slog.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		catalog: catalog,
		files:   files,
		dict:    dict,
		logger:  logger,
		metrics: metrics,
	}
}

// Transform decodes a raw request and evaluates it.
func (e *Evaluator) Transform(ctx context.Context, raw domain.RawEvent) (domain.EvaluationReport, error) {
	req, err := domain.ParseEvaluationRequest(raw)
	if err != nil {
		return domain.EvaluationReport{}, err
	}
	return e.Evaluate(ctx, req)
}

// Evaluate builds the report for req. Only an unknown crop or a cancelled
// context is an error; missing files and variables become report warnings.
func (e *Evaluator) Evaluate(ctx context.Context, req domain.EvaluationRequest) (domain.EvaluationReport, error) {
	start := time.Now()
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.EvaluationReport{}, err
	}

	crop, err := e.catalog.Crop(ctx, req.Crop)
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("resolve crop: %w", err)
	}

	logger := e.logger.With("request_id", req.ID, "crop", crop.Name, "experiment", req.Experiment)
	report := domain.NewReport(req)
	dict := e.dict.Codes()

	if len(req.OutputFiles) > 0 {
		records, err := e.evaluateOutputs(ctx, crop, req, dict, &report, logger)
		if err != nil {
			return domain.EvaluationReport{}, err
		}
		report.Records = records
	}

	if req.IncludeEvaluate {
		report.EvaluateRecords = e.evaluateSummary(crop, dict, &report, logger)
	}

	n := len(report.Records) + len(report.EvaluateRecords)
	e.metrics.RecordsComputed.Add(float64(n))
	e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	logger.Info("evaluation complete", "records", n, "warnings", len(report.Warnings))
	return report, nil
}

func (e *Evaluator) evaluateOutputs(ctx context.Context, crop domain.Crop, req domain.EvaluationRequest, dict domain.CodeDictionary, report *domain.EvaluationReport, logger *slog.Logger) ([]domain.MetricsRecord, error) {
	treatments := e.files.Treatments(crop.Path(req.Experiment))
	if len(treatments) == 0 {
		report.Warnf("no treatments found in %s", req.Experiment)
	}
	names := domain.TreatmentNames(treatments)

	sim, err := e.readOutputs(ctx, crop, req.OutputFiles, logger)
	if err != nil {
		return nil, err
	}
	for _, f := range req.OutputFiles {
		if !containsFile(sim, f) {
			report.Warnf("no simulated data in %s", f)
		}
	}
	if sim.Empty() {
		return []domain.MetricsRecord{}, nil
	}

	observedFile := crop.ObservedFile(req.Experiment)
	obs := e.files.Observed(crop.Path(observedFile))
	if obs.Empty() {
		report.Warnf("no observed data in %s", observedFile)
		return []domain.MetricsRecord{}, nil
	}
	for _, col := range []struct{ name, label string }{{"TRT", "treatment"}, {"DATE", "DATE"}} {
		if !obs.Has(col.name) {
			logger.Warn("observed data is missing a required column", "file", observedFile, "column", col.name)
			report.Warnf("no %s column in %s", col.label, observedFile)
			return []domain.MetricsRecord{}, nil
		}
	}
	obs = domain.PrepareObserved(obs, req.XVar, req.YVars, sim, logger)

	for _, v := range req.YVars {
		switch {
		case !sim.Has(v):
			report.Warnf("variable %s not found in simulated data", v)
		case !obs.Has(v):
			report.Warnf("variable %s not found in observed data", v)
		}
	}

	records := domain.EvaluateAgreement(sim, obs, req.YVars, req.Treatments, names, dict)
	if records == nil {
		records = []domain.MetricsRecord{}
	}
	return records, nil
}

// readOutputs parses the requested output files concurrently and stacks
// the prepared results in request order.
func (e *Evaluator) readOutputs(ctx context.Context, crop domain.Crop, files []string, logger *slog.Logger) (*domain.Dataset, error) {
	parts := make([]*domain.Dataset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := e.files.Output(crop.Path(f))
			parts[i] = domain.PrepareSimulated(d, f, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if !p.Empty() {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return domain.Concat(nonEmpty...), nil
}

func (e *Evaluator) evaluateSummary(crop domain.Crop, dict domain.CodeDictionary, report *domain.EvaluationReport, logger *slog.Logger) []domain.MetricsRecord {
	d := e.files.Evaluate(crop.Path(evaluateFile))
	if d.Empty() {
		report.Warnf("no data in %s", evaluateFile)
		return nil
	}
	pairs := domain.PairSimulatedObserved(d, dict, logger)
	if len(pairs) == 0 {
		report.Warnf("no simulated/measured pairs with signal in %s", evaluateFile)
	}
	return domain.EvaluatePairs(d, pairs)
}

func containsFile(sim *domain.Dataset, file string) bool {
	c, ok := sim.Column("FILE")
	if !ok {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.Text(i) == file {
			return true
		}
	}
	return false
}
