package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"anime-forge-api/internal/domain/entity"
	llmctx "anime-forge-api/internal/domain/service"
	wfmodel "anime-forge-api/internal/workflow/model"
	wfnode "anime-forge-api/internal/workflow/node"
	workflowprompt "anime-forge-api/internal/workflow/prompt"
)

// MissingBibleFields 返回设定集中需要补全的字段名
func MissingBibleFields(b *entity.StoryBible) []string {
	if b == nil {
		b = &entity.StoryBible{}
	}
	var out []string
	if strings.TrimSpace(b.Logline) == "" {
		out = append(out, "logline")
	}
	if len(b.Themes) == 0 {
		out = append(out, "themes")
	}
	if len(b.WorldRules) == 0 {
		out = append(out, "worldRules")
	}
	if len(b.Acts) == 0 {
		out = append(out, "acts")
	}
	return out
}

func (p *Pipeline) GenerateStoryBible(ctx context.Context, in *wfmodel.StoryBibleInput) (*wfmodel.StoryBibleOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	missing := MissingBibleFields(in.Current)
	if len(missing) == 0 {
		return &wfmodel.StoryBibleOutput{Bible: &entity.StoryBible{}}, nil
	}

	current := "{}"
	if in.Current != nil {
		if b, err := json.Marshal(in.Current); err == nil {
			current = wfnode.TruncateByRunes(string(b), 8000)
		}
	}

	vars := map[string]any{
		"project_name":        strings.TrimSpace(in.ProjectName),
		"project_genre":       strings.TrimSpace(in.ProjectGenre),
		"project_description": strings.TrimSpace(in.ProjectDescription),
		"current_bible_json":  current,
		"missing_fields":      strings.Join(missing, ", "),
	}

	raw, meta, err := p.generate(ctx, llmctx.WorkflowStoryBible, workflowprompt.PromptStoryBibleV1, vars, in.LLMParams)
	if err != nil {
		return nil, err
	}

	var parsed entity.StoryBible
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse story bible json: %w", err)
	}
	return &wfmodel.StoryBibleOutput{Bible: normalizeBible(&parsed), Raw: raw, Meta: meta}, nil
}

func normalizeBible(b *entity.StoryBible) *entity.StoryBible {
	out := &entity.StoryBible{Logline: strings.TrimSpace(b.Logline)}
	out.Themes = compactStrings(b.Themes)
	out.WorldRules = compactStrings(b.WorldRules)
	for _, a := range b.Acts {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		out.Acts = append(out.Acts, entity.StoryAct{Name: name, Description: strings.TrimSpace(a.Description)})
	}
	return out
}

func compactStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
