package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
	"github.com/couchcryptid/dssat-eval-service/internal/pipeline"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.err = nil
		m.mu.Unlock()
		return nil, err
	}
	if len(m.batches) > 0 {
		b := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()
	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	failKey string
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.EvaluationReport, error) {
	if string(raw.Key) == m.failKey {
		return domain.EvaluationReport{}, domain.ErrInvalidRequest
	}
	return domain.EvaluationReport{RequestID: string(raw.Key), Crop: "Maize"}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.EvaluationReport
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.EvaluationReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func (m *mockLoader) reports() []domain.EvaluationReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EvaluationReport(nil), m.loaded...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawRequest(key string, commits *atomic.Int32) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(`{"crop":"Maize","include_evaluate":true}`),
		Topic: "evaluation-requests",
		Commit: func(context.Context) error {
			if commits != nil {
				commits.Add(1)
			}
			return nil
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var commits atomic.Int32
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawRequest("req-1", &commits), rawRequest("req-2", &commits)}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	reports := ldr.reports()
	require.Len(t, reports, 2)
	assert.Equal(t, "req-1", reports[0].RequestID)
	assert.Equal(t, int32(2), commits.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 2, promtest.ToFloat64(metrics.RequestsConsumed), 0)
	assert.InDelta(t, 2, promtest.ToFloat64(metrics.ReportsProduced), 0)
	assert.InDelta(t, 0, promtest.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.reports())
}

func TestPipeline_Run_EvaluationErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int32
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawRequest("bad", &commits), rawRequest("good", &commits)}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{failKey: "bad"}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	reports := ldr.reports()
	require.Len(t, reports, 1)
	assert.Equal(t, "good", reports[0].RequestID)
	assert.Equal(t, int32(2), commits.Load())
	assert.InDelta(t, 1, promtest.ToFloat64(metrics.EvaluationErrors), 0)
}

func TestPipeline_Run_AllFailedNotReady(t *testing.T) {
	var commits atomic.Int32
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawRequest("bad", &commits)}}}
	p := pipeline.New(ext, &mockTransformer{failKey: "bad"}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, int32(1), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{rawRequest("req-1", &commits)},
		{rawRequest("req-1", &commits)},
	}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	require.Len(t, ldr.reports(), 1, "second delivery is loaded after backoff")
	assert.Equal(t, int32(1), commits.Load(), "failed load is not committed")
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{
		err:     errors.New("coordinator not available"),
		batches: [][]domain.RawEvent{{rawRequest("req-1", nil)}},
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Len(t, ldr.reports(), 1)
}
