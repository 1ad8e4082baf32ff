package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	bible *entity.StoryBible
	dna   entity.StyleDNA
	err   error
	calls int
}

func (g *fakeGenerator) GenerateStoryBible(_ context.Context, _ *wfmodel.StoryBibleInput) (*wfmodel.StoryBibleOutput, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &wfmodel.StoryBibleOutput{Bible: g.bible}, nil
}

func (g *fakeGenerator) GenerateStyleDNA(_ context.Context, _ *wfmodel.StyleDNAInput) (*wfmodel.StyleDNAOutput, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &wfmodel.StyleDNAOutput{DNA: g.dna}, nil
}

type denyQuota struct{}

func (denyQuota) CheckDailyTokens(context.Context, string) error { return apperrors.ErrPaymentRequired }

func newService(t *testing.T, gen Generator, quota QuotaChecker) (*Service, *testutil.DataLayer, *entity.Project) {
	t.Helper()
	dl := testutil.NewDataLayer(t)
	svc := NewService(dl.Projects, dl.Characters, dl.Panels, dl.TxManager, dl.Guard, dl.Recorder, gen, quota, config.LLMConfig{})
	return svc, dl, dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestGenerateStoryBible_FillsOnlyEmptyFields(t *testing.T) {
	gen := &fakeGenerator{bible: &entity.StoryBible{
		Logline: "llm logline",
		Themes:  []string{"Hope"},
	}}
	svc, _, p := newService(t, gen, nil)

	current := &entity.StoryBible{Logline: "mine"}
	draft, err := svc.GenerateStoryBible(testutil.AsUser(ownerID), p.ID, current)
	require.NoError(t, err)

	assert.Equal(t, SourceLLM, draft.Source)
	assert.Equal(t, "mine", draft.Bible.Logline)
	assert.Equal(t, []string{"Hope"}, draft.Bible.Themes)
	// LLM 未给出的字段回落到默认内容
	assert.Equal(t, DefaultStoryBible().Acts, draft.Bible.Acts)

	saved, err := svc.GetStoryBible(testutil.AsUser(ownerID), p.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.Logline, "generation does not persist")
}

func TestGenerateStoryBible_FallbackOnError(t *testing.T) {
	svc, _, p := newService(t, &fakeGenerator{err: errors.New("boom")}, nil)

	draft, err := svc.GenerateStoryBible(testutil.AsUser(ownerID), p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, draft.Source)
	assert.Equal(t, DefaultStoryBible().Logline, draft.Bible.Logline)
}

func TestGenerateStoryBible_QuotaAndOwnership(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, p := newService(t, gen, denyQuota{})

	_, err := svc.GenerateStoryBible(testutil.AsUser(otherID), p.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.GenerateStoryBible(testutil.AsUser(ownerID), p.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
	assert.Zero(t, gen.calls)
}

func TestSaveStoryBible(t *testing.T) {
	svc, dl, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)

	_, err := svc.SaveStoryBible(ctx, p.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	bible := &entity.StoryBible{Logline: "saved", Themes: []string{"Loss"}}
	_, err = svc.SaveStoryBible(ctx, p.ID, bible)
	require.NoError(t, err)

	got, err := svc.GetStoryBible(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "saved", got.Logline)
	assert.Equal(t, int64(1), dl.ProvenanceCount(t, p.ID))
}

func TestCharacters_SelectionLifecycle(t *testing.T) {
	svc, dl, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)

	first, err := svc.CreateCharacter(ctx, p.ID, CharacterInput{})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCharacterName, first.Character.Name)
	assert.Equal(t, entity.DefaultCharacterRole, first.Character.Role)
	assert.Equal(t, first.Character.ID, first.SelectedID)

	second, err := svc.CreateCharacter(ctx, p.ID, CharacterInput{Name: strPtr("Aiko"), Role: strPtr("protagonist")})
	require.NoError(t, err)
	assert.Equal(t, second.Character.ID, second.SelectedID)

	list, err := svc.ListCharacters(ctx, p.ID, first.Character.ID)
	require.NoError(t, err)
	assert.Len(t, list.Characters, 2)
	assert.Equal(t, first.Character.ID, list.SelectedID)

	list, err = svc.ListCharacters(ctx, p.ID, "unknown")
	require.NoError(t, err)
	assert.Empty(t, list.SelectedID)

	// 删除选中角色后选中剩余第一个
	res, err := svc.DeleteCharacter(ctx, p.ID, second.Character.ID, second.Character.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Character.ID, res.SelectedID)

	res, err = svc.DeleteCharacter(ctx, p.ID, first.Character.ID, first.Character.ID)
	require.NoError(t, err)
	assert.Empty(t, res.SelectedID)

	assert.Equal(t, int64(4), dl.ProvenanceCount(t, p.ID))
}

func TestUpdateCharacter(t *testing.T) {
	svc, _, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)
	created, err := svc.CreateCharacter(ctx, p.ID, CharacterInput{})
	require.NoError(t, err)

	_, err = svc.UpdateCharacter(ctx, p.ID, created.Character.ID, CharacterInput{Name: strPtr("  ")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	got, err := svc.UpdateCharacter(ctx, p.ID, created.Character.ID, CharacterInput{
		Role:        strPtr(""),
		Personality: []string{"brave", "stubborn"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCharacterRole, got.Role)
	assert.Equal(t, entity.StringList{"brave", "stubborn"}, got.Personality)

	_, err = svc.UpdateCharacter(ctx, p.ID, "00000000-0000-0000-0000-00000000dead", CharacterInput{})
	assert.ErrorIs(t, err, apperrors.ErrCharacterNotFound)
}

func TestGenerateStyleDNA(t *testing.T) {
	dna := entity.StyleDNA{
		FaceShape: "round", EyeStyle: "large", HairColor: "#fff", HairStyle: "bob",
		ColorPalette: []string{"#000"}, LineWeight: "thin", ShadingStyle: "soft",
	}
	svc, _, p := newService(t, &fakeGenerator{dna: dna}, nil)
	ctx := testutil.AsUser(ownerID)
	created, err := svc.CreateCharacter(ctx, p.ID, CharacterInput{})
	require.NoError(t, err)

	res, err := svc.GenerateStyleDNA(ctx, p.ID, created.Character.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, res.Source)
	assert.Equal(t, "round", res.StyleDNA.FaceShape)
	assert.Equal(t, "round", res.Character.StyleDNA["face_shape"])
}

func TestGenerateStyleDNA_Fallback(t *testing.T) {
	svc, _, p := newService(t, &fakeGenerator{err: errors.New("down")}, nil)
	ctx := testutil.AsUser(ownerID)
	created, err := svc.CreateCharacter(ctx, p.ID, CharacterInput{})
	require.NoError(t, err)

	res, err := svc.GenerateStyleDNA(ctx, p.ID, created.Character.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, DefaultStyleDNA(), res.StyleDNA)
}

func TestPanels_AppendPositions(t *testing.T) {
	svc, _, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)

	a, err := svc.AddPanel(ctx, p.ID, AddPanelInput{})
	require.NoError(t, err)
	b, err := svc.AddPanel(ctx, p.ID, AddPanelInput{ChapterNumber: 1, PageNumber: 1})
	require.NoError(t, err)
	c, err := svc.AddPanel(ctx, p.ID, AddPanelInput{ChapterNumber: 1, PageNumber: 2})
	require.NoError(t, err)

	assert.Equal(t, 0, a.PanelPosition)
	assert.Equal(t, 1, b.PanelPosition)
	assert.Equal(t, 0, c.PanelPosition)
	assert.Equal(t, 2, c.PageNumber)

	_, err = svc.AddPanel(ctx, p.ID, AddPanelInput{ChapterNumber: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	page1, err := svc.ListPanels(ctx, p.ID, &repository.PanelFilter{PageNumber: intPtr(1)})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	_, err = svc.AddPanel(testutil.AsUser(otherID), p.ID, AddPanelInput{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdatePanel(t *testing.T) {
	svc, _, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)
	panel, err := svc.AddPanel(ctx, p.ID, AddPanelInput{})
	require.NoError(t, err)

	_, err = svc.UpdatePanel(ctx, p.ID, panel.ID, PanelInput{PromptData: []byte("{not json")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	_, err = svc.UpdatePanel(ctx, p.ID, panel.ID, PanelInput{PanelPosition: intPtr(-1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	got, err := svc.UpdatePanel(ctx, p.ID, panel.ID, PanelInput{
		Description: strPtr("Hero enters"),
		PromptData:  []byte(`{"camera":"wide"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hero enters", got.Description)
	assert.JSONEq(t, `{"camera":"wide"}`, string(got.PromptData))

	require.NoError(t, svc.DeletePanel(ctx, p.ID, panel.ID))
	_, err = svc.ProjectPanel(ctx, p.ID, panel.ID)
	assert.ErrorIs(t, err, apperrors.ErrPanelNotFound)
}

func TestKeyframes(t *testing.T) {
	svc, _, p := newService(t, nil, nil)
	ctx := testutil.AsUser(ownerID)

	a, err := svc.AddPanel(ctx, p.ID, AddPanelInput{})
	require.NoError(t, err)
	b, err := svc.AddPanel(ctx, p.ID, AddPanelInput{})
	require.NoError(t, err)

	toggled, err := svc.ToggleKeyframe(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsKeyframe)

	kf, err := svc.Keyframes(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, kf.Panels, 1)
	assert.False(t, kf.CanAnimate)

	_, err = svc.ToggleKeyframe(ctx, p.ID, b.ID)
	require.NoError(t, err)
	kf, err = svc.Keyframes(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, kf.CanAnimate)

	toggled, err = svc.ToggleKeyframe(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsKeyframe)
}
