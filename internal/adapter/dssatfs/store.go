package dssatfs

import (
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
)

// File formats, used as metric labels and cache key prefixes.
const (
	FormatOutput     = "output"
	FormatObserved   = "observed"
	FormatEvaluate   = "evaluate"
	FormatTreatments = "treatments"
)

type parseFunc func(lines []string, opts domain.ParseOptions) *domain.Dataset

// Store reads and parses DSSAT data files. Parsed datasets are cached by
// file fingerprint; callers must treat returned datasets as read-only.
type Store struct {
	opts    domain.ParseOptions
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *datasetCache
}

// NewStore creates a store that parses with opts and keeps up to cacheSize
// datasets. A cacheSize of zero disables caching.
func NewStore(opts domain.ParseOptions, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Store {
	opts.Logger = logger
	return &Store{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		cache:   newDatasetCache(cacheSize),
	}
}

// Output parses a simulation output file such as PlantGro.OUT.
func (s *Store) Output(path string) *domain.Dataset {
	return s.load(FormatOutput, path, domain.ParseOutput)
}

// Observed parses an observed-data (*.xxT) file.
func (s *Store) Observed(path string) *domain.Dataset {
	return s.load(FormatObserved, path, domain.ParseObserved)
}

// Evaluate parses an EVALUATE.OUT summary file.
func (s *Store) Evaluate(path string) *domain.Dataset {
	return s.load(FormatEvaluate, path, domain.ParseEvaluate)
}

// Treatments reads the treatment table of an experiment file. A file that
// cannot be read yields no treatments.
func (s *Store) Treatments(path string) []domain.Treatment {
	lines, err := ReadLines(path)
	if err != nil {
		s.logger.Error("could not read experiment file", "path", path, "error", err)
		s.metrics.FilesParsed.WithLabelValues(FormatTreatments, "error").Inc()
		return nil
	}
	ts := domain.ParseTreatments(lines)
	outcome := "ok"
	if len(ts) == 0 {
		outcome = "empty"
	}
	s.metrics.FilesParsed.WithLabelValues(FormatTreatments, outcome).Inc()
	return ts
}

// load reads and parses one file. Read failures are logged and yield an
// empty dataset.
func (s *Store) load(format, path string, parse parseFunc) *domain.Dataset {
	key, keyed := cacheKey(format, path)
	if keyed {
		if d, ok := s.cache.get(key); ok {
			s.metrics.ParseCache.WithLabelValues("hit").Inc()
			return d
		}
		s.metrics.ParseCache.WithLabelValues("miss").Inc()
	}

	lines, err := ReadLines(path)
	if err != nil {
		s.logger.Error("could not read file", "format", format, "path", path, "error", err)
		s.metrics.FilesParsed.WithLabelValues(format, "error").Inc()
		return domain.NewDataset(0)
	}

	opts := s.opts
	opts.Source = filepath.Base(path)
	opts.OnReject = func(int, string) {
		s.metrics.RowsRejected.WithLabelValues(format).Inc()
	}
	d := parse(lines, opts)

	outcome := "ok"
	if d.Empty() {
		outcome = "empty"
	}
	s.metrics.FilesParsed.WithLabelValues(format, outcome).Inc()
	if keyed {
		s.cache.put(key, d)
	}
	return d
}
