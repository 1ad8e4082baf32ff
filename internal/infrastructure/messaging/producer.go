package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/pkg/logger"
)

var tracer = otel.Tracer("messaging")

const defaultMaxLen = 100000

// Producer 向溯源流追加事件，流长度近似裁剪到 maxLen
type Producer struct {
	client *redis.Client
	maxLen int64
}

func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Producer{client: client, maxLen: maxLen}
}

func (p *Producer) append(ctx context.Context, stream Stream, msg *Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"data": string(data)},
	}).Result()
}

// PublishProvenance 投递一条溯源事件，由 job-worker 落库
func (p *Producer) PublishProvenance(ctx context.Context, log *entity.ProvenanceLog) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.PublishProvenance",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("stream", string(StreamProvenanceLog)),
			attribute.String("project_id", log.ProjectID),
			attribute.String("entity_type", log.EntityType),
			attribute.String("action", string(log.Action)),
		))
	defer span.End()

	reqID, _ := ctx.Value(logger.RequestIDKey).(string)
	msg, err := NewProvenanceMessage(ctx, log, reqID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	id, err := p.append(ctx, StreamProvenanceLog, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "xadd failed")
		return "", fmt.Errorf("failed to publish provenance event: %w", err)
	}
	span.SetAttributes(attribute.String("stream.message_id", id))
	return id, nil
}
