package provenance

import (
	"context"
	"fmt"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// Writer 由 job-worker 使用，将异步事件落库
type Writer struct {
	repo repository.ProvenanceRepository
}

func NewWriter(repo repository.ProvenanceRepository) *Writer {
	return &Writer{repo: repo}
}

// Persist 写入一条事件，重复投递幂等
func (w *Writer) Persist(ctx context.Context, log *entity.ProvenanceLog) error {
	if log == nil || log.ID == "" || log.ProjectID == "" || log.EntityID == "" {
		return fmt.Errorf("invalid provenance event")
	}
	switch log.Action {
	case entity.ProvenanceInsert, entity.ProvenanceUpdate, entity.ProvenanceDelete:
	default:
		return fmt.Errorf("invalid provenance action: %q", log.Action)
	}
	return w.repo.Create(ctx, log)
}
