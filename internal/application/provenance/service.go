package provenance

import (
	"context"
	"encoding/json"
	"fmt"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// Export 导出文件
type Export struct {
	Filename string
	Body     []byte
	Count    int
}

// Stats 按动作与实体类型计数
type Stats struct {
	Total        int                             `json:"total"`
	ByAction     map[entity.ProvenanceAction]int `json:"by_action"`
	ByEntityType map[string]int                  `json:"by_entity_type"`
}

// Service 溯源查询
type Service struct {
	repo  repository.ProvenanceRepository
	guard *access.Guard
}

func NewService(repo repository.ProvenanceRepository, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// List 按 created_at 倒序，最多 100 条
func (s *Service) List(ctx context.Context, projectID string, filter repository.ProvenanceFilter) ([]*entity.ProvenanceLog, error) {
	if _, err := s.guard.Project(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID, filter.Normalize())
}

// Export 与 List 相同的行，2 空格缩进，原样输出
func (s *Service) Export(ctx context.Context, projectID string, filter repository.ProvenanceFilter) (*Export, error) {
	logs, err := s.List(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode provenance export: %w", err)
	}
	return &Export{
		Filename: fmt.Sprintf("provenance-%s.json", projectID),
		Body:     body,
		Count:    len(logs),
	}, nil
}

// Stats 与 List 相同窗口内的计数
func (s *Service) Stats(ctx context.Context, projectID string, filter repository.ProvenanceFilter) (*Stats, error) {
	logs, err := s.List(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Total: len(logs),
		ByAction: map[entity.ProvenanceAction]int{
			entity.ProvenanceInsert: 0,
			entity.ProvenanceUpdate: 0,
			entity.ProvenanceDelete: 0,
		},
		ByEntityType: map[string]int{},
	}
	for _, l := range logs {
		st.ByAction[l.Action]++
		st.ByEntityType[l.EntityType]++
	}
	return st, nil
}
