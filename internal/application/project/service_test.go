package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/testutil"
	apperrors "anime-forge-api/pkg/errors"
)

const (
	ownerID  = "00000000-0000-0000-0000-00000000000a"
	otherID  = "00000000-0000-0000-0000-00000000000b"
	adminID  = "00000000-0000-0000-0000-00000000000c"
	missedID = "00000000-0000-0000-0000-00000000dead"
)

func newService(t *testing.T) (*Service, *testutil.DataLayer) {
	t.Helper()
	dl := testutil.NewDataLayer(t)
	return NewService(dl.Projects, dl.Characters, dl.Panels, dl.TxManager, dl.Guard, dl.Recorder), dl
}

func ptr[T any](v T) *T { return &v }

func TestCreate_AppliesDefaults(t *testing.T) {
	svc, dl := newService(t)

	p, err := svc.Create(testutil.AsUser(ownerID), CreateInput{Name: "  Skyblade  "})
	require.NoError(t, err)

	assert.Equal(t, "Skyblade", p.Name)
	assert.Equal(t, entity.DefaultProjectDescription, p.Description)
	assert.Equal(t, entity.ProjectStatusDraft, p.Status)
	assert.Equal(t, entity.FundingTierSeed, p.FundingTier)
	assert.InDelta(t, entity.DefaultFundingGoal, p.FundingGoal, 1e-9)
	assert.InDelta(t, entity.DefaultBondingCurvePrice, p.BondingCurvePrice, 1e-12)
	assert.Equal(t, ownerID, p.CreatedBy)
	assert.Equal(t, int64(1), dl.ProvenanceCount(t, p.ID))
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), CreateInput{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Create(testutil.AsUser(ownerID), CreateInput{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	_, err = svc.Create(testutil.AsUser(ownerID), CreateInput{Name: "x", FundingGoal: ptr(-1.0)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, dl := newService(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)

	_, err := svc.Update(testutil.AsUser(otherID), p.ID, UpdateInput{Name: ptr("Hijack")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	status := entity.ProjectStatusFunding
	got, err := svc.Update(testutil.AsUser(ownerID), p.ID, UpdateInput{Status: &status, FundingGoal: ptr(500.0)})
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusFunding, got.Status)
	assert.InDelta(t, 500, got.FundingGoal, 1e-9)

	// 管理员可修改他人项目
	_, err = svc.Update(testutil.AsUser(adminID, entity.AppRoleAdmin), p.ID, UpdateInput{Genre: ptr("mecha")})
	require.NoError(t, err)

	assert.Equal(t, int64(2), dl.ProvenanceCount(t, p.ID))
}

func TestUpdate_RejectsInvalidEnums(t *testing.T) {
	svc, dl := newService(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
	ctx := testutil.AsUser(ownerID)

	bad := entity.ProjectStatus("archived")
	_, err := svc.Update(ctx, p.ID, UpdateInput{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	tier := entity.FundingTier("platinum")
	_, err = svc.Update(ctx, p.ID, UpdateInput{FundingTier: &tier})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)
}

func TestUpdate_NoChangesSkipsWrite(t *testing.T) {
	svc, dl := newService(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)

	_, err := svc.Update(testutil.AsUser(ownerID), p.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Zero(t, dl.ProvenanceCount(t, p.ID))
}

func TestDelete(t *testing.T) {
	svc, dl := newService(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)

	assert.ErrorIs(t, svc.Delete(testutil.AsUser(otherID), p.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, svc.Delete(testutil.AsUser(ownerID), p.ID))

	_, err := svc.Get(testutil.AsUser(ownerID), p.ID)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}

func TestDelete_RemovesStudioRowsKeepsProvenance(t *testing.T) {
	svc, dl := newService(t)
	ctx := context.Background()
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
	require.NoError(t, dl.Characters.Create(ctx, entity.NewCharacterSeed(p.ID, ownerID)))
	require.NoError(t, dl.Panels.Create(ctx, entity.NewMangaPanel(p.ID, ownerID, 1, 1, 0)))

	require.NoError(t, svc.Delete(testutil.AsUser(ownerID), p.ID))

	chars, err := dl.Characters.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, chars)
	panels, err := dl.Panels.ListByProject(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, panels)
	assert.Equal(t, int64(1), dl.ProvenanceCount(t, p.ID))
}

func TestListMineAndLaunchpad(t *testing.T) {
	svc, dl := newService(t)
	dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
	dl.SeedProject(t, ownerID, entity.ProjectStatusFunding)
	dl.SeedProject(t, otherID, entity.ProjectStatusPilot)
	dl.SeedProject(t, otherID, entity.ProjectStatusCompleted)

	mine, err := svc.ListMine(testutil.AsUser(ownerID), repository.NewPagination(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	pad, err := svc.Launchpad(testutil.AsUser(ownerID), repository.NewPagination(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pad.Total)
	for _, p := range pad.Items {
		assert.True(t, p.Status.OpenForFunding())
	}
}

func TestStudio_LoadsProjectScopedData(t *testing.T) {
	svc, dl := newService(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)

	st, err := svc.Studio(testutil.AsUser(otherID), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, st.Project.ID)
	assert.Empty(t, st.Characters)
	assert.Empty(t, st.Panels)
	assert.False(t, svc.CanEdit(testutil.AsUser(otherID), st.Project))
	assert.True(t, svc.CanEdit(testutil.AsUser(ownerID), st.Project))

	_, err = svc.Studio(testutil.AsUser(ownerID), missedID)
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}
