package studio

import (
	"context"
	"strings"

	"gorm.io/datatypes"

	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// DefaultStyleDNA LLM 不可用时的画风基因
func DefaultStyleDNA() entity.StyleDNA {
	return entity.StyleDNA{
		FaceShape:    "angular",
		EyeStyle:     "sharp",
		HairColor:    "#2a1f5c",
		HairStyle:    "spiky",
		ColorPalette: []string{"#ff4081", "#00bcd4", "#1a1a2e"},
		LineWeight:   "medium",
		ShadingStyle: "cel",
	}
}

// CharacterInput 角色字段，nil 表示不修改
type CharacterInput struct {
	Name              *string
	Role              *string
	Personality       []string
	Backstory         *string
	Abilities         []string
	Appearance        *string
	ReferenceImageURL *string
	StyleDNA          map[string]any
}

// CharacterList 角色列表与当前选中
type CharacterList struct {
	Characters []*entity.CharacterSeed `json:"characters"`
	SelectedID string                  `json:"selected_id"`
}

// CharacterMutation 创建或删除后的结果
type CharacterMutation struct {
	Character  *entity.CharacterSeed `json:"character,omitempty"`
	SelectedID string                `json:"selected_id"`
}

// StyleDNAResult 生成并保存的画风基因
type StyleDNAResult struct {
	Character *entity.CharacterSeed `json:"character"`
	StyleDNA  entity.StyleDNA       `json:"style_dna"`
	Source    string                `json:"source"`
}

func characterIDs(list []*entity.CharacterSeed) []string {
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids
}

func selectedID(sel service.CharacterSelection) string {
	id, _ := sel.Selected()
	return id
}

// ListCharacters 角色按创建时间正序；selected 为客户端当前点击的角色
func (s *Service) ListCharacters(ctx context.Context, projectID, selected string) (*CharacterList, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list, err := s.characters.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	sel := service.CharacterSelection{}.OnClick(selected, characterIDs(list))
	return &CharacterList{Characters: list, SelectedID: selectedID(sel)}, nil
}

// projectCharacter 读取属于项目的角色
func (s *Service) projectCharacter(ctx context.Context, projectID, characterID string) (*entity.CharacterSeed, error) {
	c, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ProjectID != projectID {
		return nil, apperrors.ErrCharacterNotFound
	}
	return c, nil
}

// CreateCharacter 以默认值创建角色并选中
func (s *Service) CreateCharacter(ctx context.Context, projectID string, in CharacterInput) (*CharacterMutation, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	c := entity.NewCharacterSeed(p.ID, session.UserID(ctx))
	if err := applyCharacterInput(c, in); err != nil {
		return nil, err
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.characters.Create(txCtx, c); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.CharacterSeed{}.TableName(),
			EntityID:   c.ID,
			Action:     entity.ProvenanceInsert,
			Details:    map[string]any{"name": c.Name, "role": c.Role},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)

	sel := service.CharacterSelection{}.OnCreate(c.ID)
	return &CharacterMutation{Character: c, SelectedID: selectedID(sel)}, nil
}

// UpdateCharacter 更新角色字段
func (s *Service) UpdateCharacter(ctx context.Context, projectID, characterID string, in CharacterInput) (*entity.CharacterSeed, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c, err := s.projectCharacter(ctx, p.ID, characterID)
	if err != nil {
		return nil, err
	}
	if err := applyCharacterInput(c, in); err != nil {
		return nil, err
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.characters.Update(txCtx, c); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.CharacterSeed{}.TableName(),
			EntityID:   c.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    map[string]any{"fields": in.fields()},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return c, nil
}

// DeleteCharacter 删除角色；selected 为删除前的选中角色
func (s *Service) DeleteCharacter(ctx context.Context, projectID, characterID, selected string) (*CharacterMutation, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c, err := s.projectCharacter(ctx, p.ID, characterID)
	if err != nil {
		return nil, err
	}

	var remaining []*entity.CharacterSeed
	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.characters.Delete(txCtx, c.ID); err != nil {
			return err
		}
		if err := batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.CharacterSeed{}.TableName(),
			EntityID:   c.ID,
			Action:     entity.ProvenanceDelete,
			Details:    map[string]any{"name": c.Name},
		}); err != nil {
			return err
		}
		remaining, err = s.characters.ListByProject(txCtx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)

	sel := service.NewCharacterSelection(selected).OnDelete(c.ID, characterIDs(remaining))
	return &CharacterMutation{SelectedID: selectedID(sel)}, nil
}

// GenerateStyleDNA 生成画风基因并保存到角色
func (s *Service) GenerateStyleDNA(ctx context.Context, projectID, characterID string) (*StyleDNAResult, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c, err := s.projectCharacter(ctx, p.ID, characterID)
	if err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx); err != nil {
		return nil, err
	}

	dna, source := DefaultStyleDNA(), SourceFallback
	if s.generator != nil {
		out, err := s.generator.GenerateStyleDNA(ctx, &wfmodel.StyleDNAInput{
			LLMParams:    s.params(service.WorkflowStyleDNA),
			ProjectGenre: p.Genre,
			Name:         c.Name,
			Role:         c.Role,
			Appearance:   c.Appearance,
			Personality:  c.Personality,
			Backstory:    c.Backstory,
		})
		if err != nil {
			logger.Warn(ctx, "style dna generation failed, using default", "character_id", c.ID, "error", err)
		} else {
			dna, source = out.DNA, SourceLLM
		}
	}
	c.StyleDNA = dna.ToMap()

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.characters.Update(txCtx, c); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.CharacterSeed{}.TableName(),
			EntityID:   c.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    map[string]any{"fields": []string{"style_dna"}, "source": source},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return &StyleDNAResult{Character: c, StyleDNA: dna, Source: source}, nil
}

func applyCharacterInput(c *entity.CharacterSeed, in CharacterInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperrors.ErrInvalidParam.WithDetail("name cannot be empty")
		}
		c.Name = name
	}
	if in.Role != nil {
		role := strings.TrimSpace(*in.Role)
		if role == "" {
			role = entity.DefaultCharacterRole
		}
		c.Role = role
	}
	if in.Personality != nil {
		c.Personality = entity.StringList(in.Personality)
	}
	if in.Backstory != nil {
		c.Backstory = *in.Backstory
	}
	if in.Abilities != nil {
		c.Abilities = entity.StringList(in.Abilities)
	}
	if in.Appearance != nil {
		c.Appearance = *in.Appearance
	}
	if in.ReferenceImageURL != nil {
		c.ReferenceImageURL = strings.TrimSpace(*in.ReferenceImageURL)
	}
	if in.StyleDNA != nil {
		c.StyleDNA = datatypes.JSONMap(in.StyleDNA)
	}
	return nil
}

func (in CharacterInput) fields() []string {
	var out []string
	if in.Name != nil {
		out = append(out, "name")
	}
	if in.Role != nil {
		out = append(out, "role")
	}
	if in.Personality != nil {
		out = append(out, "personality")
	}
	if in.Backstory != nil {
		out = append(out, "backstory")
	}
	if in.Abilities != nil {
		out = append(out, "abilities")
	}
	if in.Appearance != nil {
		out = append(out, "appearance")
	}
	if in.ReferenceImageURL != nil {
		out = append(out, "reference_image_url")
	}
	if in.StyleDNA != nil {
		out = append(out, "style_dna")
	}
	return out
}
