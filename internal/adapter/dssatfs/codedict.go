package dssatfs

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
)

// CodeDictionary memoizes the DATA.CDE variable dictionary. The file is read
// on first use and kept for the life of the process until Reload is called.
// It implements domain.Dictionary.
type CodeDictionary struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	codes  domain.CodeDictionary
	loaded bool
}

// NewCodeDictionary creates a lazy dictionary backed by the DATA.CDE file at path.
func NewCodeDictionary(path string, logger *slog.Logger, metrics *observability.Metrics) *CodeDictionary {
	return &CodeDictionary{path: path, logger: logger, metrics: metrics}
}

// Codes returns the dictionary, loading it on first call. A file that cannot
// be read yields an empty dictionary and is retried on the next call.
func (c *CodeDictionary) Codes() domain.CodeDictionary {
	c.mu.RLock()
	if c.loaded {
		codes := c.codes
		c.mu.RUnlock()
		return codes
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.codes
	}
	codes, err := c.read()
	if err != nil {
		c.logger.Error("error parsing DATA.CDE", "path", c.path, "error", err)
		return domain.CodeDictionary{}
	}
	c.codes, c.loaded = codes, true
	return codes
}

// Reload re-reads the file. On failure the previous dictionary is kept.
func (c *CodeDictionary) Reload() error {
	codes, err := c.read()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.codes, c.loaded = codes, true
	c.mu.Unlock()
	c.logger.Info("code dictionary reloaded", "path", c.path, "codes", len(codes))
	return nil
}

func (c *CodeDictionary) read() (domain.CodeDictionary, error) {
	lines, err := ReadLines(c.path)
	if err != nil {
		c.metrics.CodeDictionaryLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read code dictionary: %w", err)
	}
	c.metrics.CodeDictionaryLoads.WithLabelValues("ok").Inc()
	return domain.ParseCodeDictionary(lines), nil
}
