package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"anime-forge-api/internal/domain/entity"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestBackoffConfig_CalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(3))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(10))
}

func TestProducerConsumer_ProvenanceRoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	consumer := NewConsumer(rdb, ConsumerConfig{
		Stream:       StreamProvenanceLog,
		Group:        ConsumerGroupProvenanceWriter,
		ConsumerName: "test",
	})
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx))

	var got []*entity.ProvenanceLog
	consumer.RegisterHandler(MessageTypeProvenanceEvent, func(ctx context.Context, msg *Message) error {
		log, err := msg.DecodeProvenance()
		if err != nil {
			return err
		}
		got = append(got, log)
		return nil
	})

	producer := NewProducer(rdb, 1000)
	_, err := producer.PublishProvenance(ctx, &entity.ProvenanceLog{
		ID:         "log-1",
		ProjectID:  "p1",
		EntityType: "manga_panels",
		EntityID:   "panel-1",
		Action:     entity.ProvenanceUpdate,
		UserID:     "u1",
		PromptHash: "abc",
	})
	require.NoError(t, err)

	n, err := consumer.ReadOnce(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, got, 1)
	assert.Equal(t, "log-1", got[0].ID)
	assert.Equal(t, entity.ProvenanceUpdate, got[0].Action)
	assert.Equal(t, "abc", got[0].PromptHash)

	pending, err := rdb.XPending(ctx, string(StreamProvenanceLog), string(ConsumerGroupProvenanceWriter)).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumer_FailedMessageStaysPending(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	consumer := NewConsumer(rdb, ConsumerConfig{
		Stream:       StreamProvenanceLog,
		Group:        ConsumerGroupProvenanceWriter,
		ConsumerName: "test",
		RetryLimit:   5,
	})
	require.NoError(t, consumer.EnsureGroup(ctx))
	consumer.RegisterHandler(MessageTypeProvenanceEvent, func(context.Context, *Message) error {
		return errors.New("db down")
	})

	_, err := NewProducer(rdb, 0).PublishProvenance(ctx, &entity.ProvenanceLog{ID: "log-1", ProjectID: "p1"})
	require.NoError(t, err)

	_, err = consumer.ReadOnce(ctx, -1)
	require.NoError(t, err)

	pending, err := rdb.XPending(ctx, string(StreamProvenanceLog), string(ConsumerGroupProvenanceWriter)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestMessage_DecodeProvenance(t *testing.T) {
	ctx := context.Background()
	msg, err := NewProvenanceMessage(ctx, &entity.ProvenanceLog{
		ProjectID:  "p1",
		EntityType: "characters",
		EntityID:   "c1",
		Action:     entity.ProvenanceInsert,
	}, "req-1")
	require.NoError(t, err)
	msg.ID = "log-9"

	log, err := msg.DecodeProvenance()
	require.NoError(t, err)
	assert.Equal(t, "log-9", log.ID)
	assert.Equal(t, "req-1", msg.Meta(MetaRequestID))

	msg.Type = "other"
	_, err = msg.DecodeProvenance()
	assert.ErrorIs(t, err, ErrUnexpectedType)

	incomplete, err := NewProvenanceMessage(ctx, &entity.ProvenanceLog{ID: "x", ProjectID: "p1"}, "")
	require.NoError(t, err)
	_, err = incomplete.DecodeProvenance()
	assert.Error(t, err)
	assert.Empty(t, incomplete.Meta(MetaRequestID))
}

func TestMessage_CarriesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	msg, err := NewProvenanceMessage(ctx, &entity.ProvenanceLog{ID: "l1", ProjectID: "p1", EntityType: "projects", EntityID: "p1"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Meta("traceparent"))

	remote := trace.SpanContextFromContext(msg.RemoteContext(context.Background()))
	assert.Equal(t, traceID, remote.TraceID())
	assert.True(t, remote.IsRemote())
}
