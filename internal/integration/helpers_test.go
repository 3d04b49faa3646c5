//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"github.com/couchcryptid/dssat-eval-service/internal/adapter/dssatfs"
	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
	"github.com/couchcryptid/dssat-eval-service/internal/pipeline"
	"github.com/couchcryptid/dssat-eval-service/internal/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("dssat-eval-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// newEvaluator wires an Evaluator over a fixture installation.
func newEvaluator(t *testing.T) *pipeline.Evaluator {
	t.Helper()
	in := testutil.NewInstall(t)
	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()
	return pipeline.NewEvaluator(
		dssatfs.NewCatalog(in.Base, logger),
		dssatfs.NewStore(domain.ParseOptions{}, 8, logger, metrics),
		dssatfs.NewCodeDictionary(in.DataCDE, logger, metrics),
		logger,
		metrics,
	)
}
