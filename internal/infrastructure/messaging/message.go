// Package messaging 溯源事件的 Redis Streams 投递与消费
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"anime-forge-api/internal/domain/entity"
)

// 元数据键
const (
	MetaRequestID = "request_id"
)

// ErrUnexpectedType 消息类型与解码目标不符
var ErrUnexpectedType = errors.New("unexpected message type")

// Message 流中 data 字段的 JSON 信封
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	ProjectID string            `json:"project_id,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewProvenanceMessage 把溯源事件包装为消息，携带请求 ID 与 trace 上下文
func NewProvenanceMessage(ctx context.Context, log *entity.ProvenanceLog, requestID string) (*Message, error) {
	payload, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("failed to encode provenance event: %w", err)
	}
	msg := &Message{
		ID:        log.ID,
		Type:      MessageTypeProvenanceEvent,
		UserID:    log.UserID,
		ProjectID: log.ProjectID,
		Payload:   payload,
		Metadata:  map[string]string{},
		CreatedAt: time.Now().UTC(),
	}
	if requestID != "" {
		msg.Metadata[MetaRequestID] = requestID
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	return msg, nil
}

// Meta 读取元数据，缺失返回空串
func (m *Message) Meta(key string) string {
	return m.Metadata[key]
}

// RemoteContext 恢复生产端的 trace 上下文
func (m *Message) RemoteContext(ctx context.Context) context.Context {
	if len(m.Metadata) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(m.Metadata))
}

// DecodeProvenance 解出溯源事件；ID 缺失时用消息 ID 补齐
func (m *Message) DecodeProvenance() (*entity.ProvenanceLog, error) {
	if m.Type != MessageTypeProvenanceEvent {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedType, m.Type)
	}
	var log entity.ProvenanceLog
	if err := json.Unmarshal(m.Payload, &log); err != nil {
		return nil, fmt.Errorf("failed to decode provenance event: %w", err)
	}
	if log.ID == "" {
		log.ID = m.ID
	}
	if log.ProjectID == "" || log.EntityType == "" || log.EntityID == "" {
		return nil, fmt.Errorf("provenance event %s is missing project or entity", m.ID)
	}
	return &log, nil
}

// Stream 流名
type Stream string

const (
	StreamProvenanceLog Stream = "stream:provenance:log"
)

// DLQStream 对应的死信流
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组名
type ConsumerGroup string

const (
	ConsumerGroupProvenanceWriter ConsumerGroup = "cg-provenance-writer"
)

const (
	MessageTypeProvenanceEvent = "provenance_event"
)

// BackoffConfig 重试退避
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// CalculateBackoff 第 retryCount 次重试前的等待，不超过 Max
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	if c.Initial <= 0 {
		c.Initial = time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1
	}
	backoff := c.Initial
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if c.Max > 0 && backoff >= c.Max {
			return c.Max
		}
	}
	return backoff
}
