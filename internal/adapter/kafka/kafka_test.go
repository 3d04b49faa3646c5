package kafka

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"crop":"Maize"}`),
		Topic:     "evaluation-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("scheduler")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"crop":"Maize"}`, string(raw.Value))
	assert.Equal(t, "evaluation-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	nrmse := 5.0
	report := domain.EvaluationReport{
		RequestID:  "req-1",
		Crop:       "Maize",
		Experiment: "UFGA8201.MZX",
		XVar:       "DATE",
		Records: []domain.MetricsRecord{
			{File: "PlantGro.OUT", Treatment: "1", Variable: "CWAD", Label: "Tops wt", N: 2, RMSE: 10, NRMSE: &nrmse},
		},
		GeneratedAt: now,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "crop", msg.Headers[0].Key)
	assert.Equal(t, []byte("Maize"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "req-1", decoded["request_id"])
	records := decoded["records"].([]any)
	require.Len(t, records, 1)
	rec := records[0].(map[string]any)
	assert.Equal(t, "CWAD", rec["variable"])
	assert.InDelta(t, 5.0, rec["nrmse"], 0)
	assert.Nil(t, rec["d_stat"], "undefined statistics serialize as null")
}

func TestSerializeToMessage_InvalidFloat(t *testing.T) {
	report := domain.EvaluationReport{
		RequestID: "req-2",
		Records:   []domain.MetricsRecord{{RMSE: math.Inf(1)}},
	}
	_, err := serializeToMessage(report)
	assert.Error(t, err)
}
