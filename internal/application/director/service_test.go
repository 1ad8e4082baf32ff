package director

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/testutil"
	wfmodel "anime-forge-api/internal/workflow/model"
	apperrors "anime-forge-api/pkg/errors"
)

const (
	ownerID = "00000000-0000-0000-0000-00000000000a"
	otherID = "00000000-0000-0000-0000-00000000000b"
)

type fakeGenerator struct {
	out  []entity.Variation
	err  error
	last *wfmodel.VariationsInput
}

func (g *fakeGenerator) GenerateVariations(_ context.Context, in *wfmodel.VariationsInput) (*wfmodel.VariationsOutput, error) {
	g.last = in
	if g.err != nil {
		return nil, g.err
	}
	return &wfmodel.VariationsOutput{Variations: g.out}, nil
}

type quotaFunc func() error

func (f quotaFunc) CheckDailyTokens(context.Context, string) error { return f() }

func llmVariations() []entity.Variation {
	out := make([]entity.Variation, entity.VariationCount)
	for i := range out {
		out[i] = entity.Variation{ID: fmt.Sprint(i + 1), Prompt: fmt.Sprintf("llm prompt %d", i+1)}
	}
	return out
}

func TestGenerate_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		quota   QuotaChecker
		outcome Outcome
		message string
	}{
		{name: "success", gen: &fakeGenerator{out: llmVariations()}, outcome: OutcomeSuccess},
		{name: "no generator", outcome: OutcomeFallback},
		{name: "wrong count", gen: &fakeGenerator{out: llmVariations()[:2]}, outcome: OutcomeFallback},
		{name: "gateway 429", gen: &fakeGenerator{err: errors.New("error, status code: 429, message: slow down")}, outcome: OutcomeRateLimited, message: apperrors.ErrRateLimited.Message},
		{name: "gateway 402", gen: &fakeGenerator{err: errors.New("error, status code: 402, message: pay")}, outcome: OutcomePaymentRequired, message: apperrors.ErrPaymentRequired.Message},
		{name: "other error", gen: &fakeGenerator{err: errors.New("eof")}, outcome: OutcomeFallback},
		{name: "quota exhausted", gen: &fakeGenerator{out: llmVariations()}, quota: quotaFunc(func() error { return apperrors.ErrPaymentRequired }), outcome: OutcomeRateLimited, message: apperrors.ErrRateLimited.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, nil, nil, nil, nil, nil, tt.gen, tt.quota, config.LLMConfig{})
			res := svc.Generate(testutil.AsUser(ownerID), VariationsRequest{PanelDescription: "Rooftop duel"})
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.message, res.Message)
			assert.Len(t, res.Variations, entity.VariationCount)
		})
	}
}

func TestGenerate_FallbackUsesDefaultDescription(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil, nil, config.LLMConfig{})
	res := svc.Generate(context.Background(), VariationsRequest{PanelDescription: "   "})
	require.Len(t, res.Variations, 4)
	assert.Equal(t, DefaultPanelDescription+" - Dynamic action pose with motion blur and speed lines, anime style", res.Variations[0].Prompt)
	for i, v := range res.Variations {
		assert.Equal(t, fmt.Sprint(i+1), v.ID)
	}
}

func TestCharacterContext(t *testing.T) {
	got := CharacterContext([]*entity.CharacterSeed{
		{Name: "Aiko", Role: "protagonist", Appearance: "silver hair"},
		{Name: "Ren", Role: "rival"},
	})
	assert.Equal(t, "Aiko (protagonist): silver hair\nRen (rival): No description", got)
}

func setup(t *testing.T, gen Generator) (*Service, *testutil.DataLayer, *entity.Project, *entity.MangaPanel) {
	t.Helper()
	dl := testutil.NewDataLayer(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
	panel := entity.NewMangaPanel(p.ID, ownerID, 1, 1, 0)
	panel.Description = "Rooftop duel"
	require.NoError(t, dl.Panels.Create(context.Background(), panel))
	svc := NewService(dl.Characters, dl.Panels, dl.Choices, dl.TxManager, dl.Guard, dl.Recorder, gen, nil, config.LLMConfig{})
	return svc, dl, p, panel
}

func TestGenerateForPanel_BuildsCharacterContext(t *testing.T) {
	gen := &fakeGenerator{out: llmVariations()}
	svc, dl, p, panel := setup(t, gen)

	c := entity.NewCharacterSeed(p.ID, ownerID)
	c.Name, c.Role, c.Appearance = "Aiko", "protagonist", "silver hair"
	require.NoError(t, dl.Characters.Create(context.Background(), c))

	res, err := svc.GenerateForPanel(testutil.AsUser(otherID), p.ID, panel.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	require.NotNil(t, gen.last)
	assert.Equal(t, "Rooftop duel", gen.last.PanelDescription)
	assert.Equal(t, "Aiko (protagonist): silver hair", gen.last.CharacterContext)
	assert.NotEmpty(t, gen.last.StylePreferences)

	_, err = svc.GenerateForPanel(testutil.AsUser(ownerID), p.ID, "00000000-0000-0000-0000-00000000dead", nil)
	assert.ErrorIs(t, err, apperrors.ErrPanelNotFound)
}

func TestSelect_UpdatesPanelAndRecordsChoice(t *testing.T) {
	svc, dl, p, panel := setup(t, nil)
	ctx := testutil.AsUser(ownerID)
	variations := FallbackVariations(panel.Description)

	choice, err := svc.Select(ctx, p.ID, panel.ID, ChoiceInput{
		Variations:    variations,
		SelectedIndex: 2,
		ImageURL:      "https://cdn.example/p.png",
	})
	require.NoError(t, err)
	require.NotNil(t, choice.SelectedIndex)
	assert.Equal(t, 2, *choice.SelectedIndex)
	assert.Equal(t, ownerID, choice.SelectedBy)
	assert.Equal(t, entity.ChoiceTypePanelVariation, choice.ChoiceType)

	stored, err := dl.Panels.GetByID(context.Background(), panel.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/p.png", stored.ImageURL)

	logs, err := dl.Provenance.ListByProject(context.Background(), p.ID, repository.ProvenanceFilter{}.Normalize())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, provenance.PromptHash(variations[2].Prompt), logs[0].PromptHash)

	page, err := svc.ListChoices(ctx, p.ID, panel.ID, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestSelect_Rejections(t *testing.T) {
	svc, dl, p, panel := setup(t, nil)
	variations := FallbackVariations("x")

	for _, idx := range []int{-1, 4} {
		_, err := svc.Select(testutil.AsUser(ownerID), p.ID, panel.ID, ChoiceInput{Variations: variations, SelectedIndex: idx})
		assert.ErrorIs(t, err, apperrors.ErrInvalidSelection)
	}

	_, err := svc.Select(testutil.AsUser(otherID), p.ID, panel.ID, ChoiceInput{Variations: variations, SelectedIndex: 0})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	assert.Zero(t, dl.ProvenanceCount(t, p.ID))
}
