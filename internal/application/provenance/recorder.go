// Package provenance 创作溯源：记录、推送与导出
package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/metrics"
)

// Event 一次写操作的溯源描述
type Event struct {
	ProjectID  string
	EntityType string
	EntityID   string
	Action     entity.ProvenanceAction
	Details    map[string]any
	PromptHash string
}

// Publisher 异步模式下的事件投递
type Publisher interface {
	PublishProvenance(ctx context.Context, log *entity.ProvenanceLog) (string, error)
}

// Broadcaster 向项目实时订阅者推送事件
type Broadcaster interface {
	Broadcast(projectID string, log *entity.ProvenanceLog)
}

// Recorder 溯源记录器
type Recorder struct {
	repo        repository.ProvenanceRepository
	publisher   Publisher
	broadcaster Broadcaster
	mode        string
}

func NewRecorder(repo repository.ProvenanceRepository, publisher Publisher, broadcaster Broadcaster, mode string) *Recorder {
	if mode != config.ProvenanceModeAsync || publisher == nil {
		mode = config.ProvenanceModeSync
	}
	return &Recorder{repo: repo, publisher: publisher, broadcaster: broadcaster, mode: mode}
}

// Mode 当前记录模式
func (r *Recorder) Mode() string {
	return r.mode
}

// Begin 开始一批与业务写入同事务的事件
func (r *Recorder) Begin() *Batch {
	return &Batch{r: r}
}

// Record 记录单个事件并立即提交
func (r *Recorder) Record(ctx context.Context, evt Event) error {
	b := r.Begin()
	if err := b.Add(ctx, evt); err != nil {
		return err
	}
	b.Commit(ctx)
	return nil
}

// Batch 在业务事务内收集事件；同步模式下随事务写入，事务提交后再投递与推送
type Batch struct {
	r    *Recorder
	logs []*entity.ProvenanceLog
}

// Add 在 ctx 所在事务中登记事件
func (b *Batch) Add(ctx context.Context, evt Event) error {
	log, err := newLog(ctx, evt)
	if err != nil {
		return err
	}
	if b.r.mode == config.ProvenanceModeSync {
		if err := b.r.repo.Create(ctx, log); err != nil {
			return err
		}
	}
	b.logs = append(b.logs, log)
	return nil
}

// Logs 已登记的事件
func (b *Batch) Logs() []*entity.ProvenanceLog {
	return b.logs
}

// Commit 业务事务提交后调用
func (b *Batch) Commit(ctx context.Context) {
	for _, log := range b.logs {
		if b.r.mode == config.ProvenanceModeAsync {
			if _, err := b.r.publisher.PublishProvenance(ctx, log); err != nil {
				logger.Error(ctx, "failed to publish provenance event, writing directly", err, "log_id", log.ID)
				if err := b.r.repo.Create(ctx, log); err != nil {
					logger.Error(ctx, "failed to persist provenance event", err, "log_id", log.ID)
					continue
				}
			}
		}
		metrics.ProvenanceEventsTotal.WithLabelValues(log.EntityType, string(log.Action), b.r.mode).Inc()
		if b.r.broadcaster != nil {
			b.r.broadcaster.Broadcast(log.ProjectID, log)
		}
	}
	b.logs = nil
}

func newLog(ctx context.Context, evt Event) (*entity.ProvenanceLog, error) {
	details := datatypes.JSON("{}")
	if len(evt.Details) > 0 {
		b, err := json.Marshal(evt.Details)
		if err != nil {
			return nil, err
		}
		details = b
	}
	return &entity.ProvenanceLog{
		ID:         uuid.NewString(),
		ProjectID:  evt.ProjectID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Action:     evt.Action,
		UserID:     session.UserID(ctx),
		Details:    details,
		PromptHash: evt.PromptHash,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// PromptHash 提示词的 SHA-256 十六进制摘要
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
