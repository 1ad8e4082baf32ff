package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"anime-forge-api/internal/domain/entity"
	llmctx "anime-forge-api/internal/domain/service"
	wfmodel "anime-forge-api/internal/workflow/model"
	workflowprompt "anime-forge-api/internal/workflow/prompt"
)

func (p *Pipeline) GenerateStyleDNA(ctx context.Context, in *wfmodel.StyleDNAInput) (*wfmodel.StyleDNAOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	vars := map[string]any{
		"project_genre": strings.TrimSpace(in.ProjectGenre),
		"name":          strings.TrimSpace(in.Name),
		"role":          strings.TrimSpace(in.Role),
		"appearance":    strings.TrimSpace(in.Appearance),
		"personality":   strings.Join(in.Personality, ", "),
		"backstory":     strings.TrimSpace(in.Backstory),
	}

	raw, meta, err := p.generate(ctx, llmctx.WorkflowStyleDNA, workflowprompt.PromptStyleDNAV1, vars, in.LLMParams)
	if err != nil {
		return nil, err
	}

	var dna entity.StyleDNA
	if err := json.Unmarshal([]byte(raw), &dna); err != nil {
		return nil, fmt.Errorf("failed to parse style dna json: %w", err)
	}
	dna.ColorPalette = compactStrings(dna.ColorPalette)
	if !dna.Complete() {
		return nil, fmt.Errorf("style dna output is incomplete")
	}
	return &wfmodel.StyleDNAOutput{DNA: dna, Raw: raw, Meta: meta}, nil
}
