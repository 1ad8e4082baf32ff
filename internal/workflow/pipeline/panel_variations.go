package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"anime-forge-api/internal/domain/entity"
	llmctx "anime-forge-api/internal/domain/service"
	wfmodel "anime-forge-api/internal/workflow/model"
	workflowprompt "anime-forge-api/internal/workflow/prompt"
)

// ErrTooFewVariations 模型返回的有效变体不足
var ErrTooFewVariations = errors.New("llm returned fewer than 4 usable variations")

// DefaultStylePreferences 未指定画风偏好时使用
var DefaultStylePreferences = []string{"anime", "manga"}

func (p *Pipeline) GenerateVariations(ctx context.Context, in *wfmodel.VariationsInput) (*wfmodel.VariationsOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	prefs := in.StylePreferences
	if len(prefs) == 0 {
		prefs = DefaultStylePreferences
	}
	dialogue := ""
	if d := strings.TrimSpace(in.Dialogue); d != "" {
		dialogue = fmt.Sprintf("Dialogue: %q", d)
	}
	characters := ""
	if c := strings.TrimSpace(in.CharacterContext); c != "" {
		characters = "Characters:\n" + c
	}

	vars := map[string]any{
		"panel_description": strings.TrimSpace(in.PanelDescription),
		"dialogue_block":    dialogue,
		"characters_block":  characters,
		"style_preferences": strings.Join(prefs, ", "),
	}

	raw, meta, err := p.generate(ctx, llmctx.WorkflowPanelVariations, workflowprompt.PromptPanelVariationsV1, vars, in.LLMParams)
	if err != nil {
		return nil, err
	}

	variations, err := ParseVariations(raw)
	if err != nil {
		return nil, err
	}
	return &wfmodel.VariationsOutput{Variations: variations, Raw: raw, Meta: meta}, nil
}

type rawVariation struct {
	ID          any    `json:"id"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	StyleNotes  string `json:"style_notes"`
}

// ParseVariations 接受 {"variations":[...]} 或裸数组，返回前 4 个完整变体
func ParseVariations(raw string) ([]entity.Variation, error) {
	raw = strings.TrimSpace(raw)
	var items []rawVariation
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("failed to parse variations json: %w", err)
		}
	} else {
		var parsed struct {
			Variations []rawVariation `json:"variations"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse variations json: %w", err)
		}
		items = parsed.Variations
	}

	out := make([]entity.Variation, 0, entity.VariationCount)
	for _, it := range items {
		if len(out) == entity.VariationCount {
			break
		}
		desc := strings.TrimSpace(it.Description)
		prompt := strings.TrimSpace(it.Prompt)
		if desc == "" || prompt == "" {
			continue
		}
		id := ""
		if it.ID != nil {
			id = strings.TrimSpace(fmt.Sprint(it.ID))
		}
		if id == "" {
			id = strconv.Itoa(len(out) + 1)
		}
		out = append(out, entity.Variation{
			ID:          id,
			Description: desc,
			Prompt:      prompt,
			StyleNotes:  strings.TrimSpace(it.StyleNotes),
		})
	}
	if len(out) < entity.VariationCount {
		return nil, ErrTooFewVariations
	}
	return out, nil
}
