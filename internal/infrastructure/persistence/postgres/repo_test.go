package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

func seedProject(t *testing.T, client *Client, status entity.ProjectStatus) *entity.Project {
	t.Helper()
	p := entity.NewProject("00000000-0000-0000-0000-000000000001", "Skyblade")
	p.Status = status
	require.NoError(t, NewProjectRepository(client).Create(context.Background(), p))
	return p
}

func TestProjectRepository_ApplyFundingGuardsOnPrice(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusFunding)

	ok, err := repo.ApplyFunding(ctx, repository.FundingUpdate{
		ProjectID:         p.ID,
		ExpectedPrice:     0.01,
		Amount:            10,
		NewPrice:          0.0101,
		FundingPercentage: 0.1,
		Status:            entity.ProjectStatusFunding,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// 价格已被推高，旧价格的更新不再命中
	ok, err = repo.ApplyFunding(ctx, repository.FundingUpdate{
		ProjectID:     p.ID,
		ExpectedPrice: 0.01,
		Amount:        10,
		NewPrice:      0.0101,
		Status:        entity.ProjectStatusFunding,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, got.FundingCurrent, 1e-9)
	assert.InDelta(t, 0.0101, got.BondingCurvePrice, 1e-12)
	assert.InDelta(t, 0.1, got.FundingPercentage, 1e-9)
}

func TestProjectRepository_GetMissingReturnsNil(t *testing.T) {
	client := newTestClient(t)
	got, err := NewProjectRepository(client).GetByID(context.Background(), "00000000-0000-0000-0000-00000000dead")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjectRepository_StoryBibleRoundTrip(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	bible := &entity.StoryBible{
		Title:  "Skyblade",
		Themes: []string{"Destiny"},
		Acts:   []entity.StoryAct{{Name: "Act 1", Description: "Start"}},
	}
	require.NoError(t, repo.UpdateStoryBible(ctx, p.ID, bible))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, bible, got.StoryBible)
}

func TestProjectRepository_ListByStatusesOrdersByFunding(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRepository(client)
	ctx := context.Background()

	low := seedProject(t, client, entity.ProjectStatusPilot)
	high := seedProject(t, client, entity.ProjectStatusFunding)
	seedProject(t, client, entity.ProjectStatusDraft)

	_, err := repo.ApplyFunding(ctx, repository.FundingUpdate{ProjectID: high.ID, ExpectedPrice: 0.01, Amount: 50, NewPrice: 0.0101, Status: entity.ProjectStatusFunding})
	require.NoError(t, err)

	page, err := repo.ListByStatuses(ctx, entity.LaunchpadStatuses, repository.NewPagination(1, 20))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, high.ID, page.Items[0].ID)
	assert.Equal(t, low.ID, page.Items[1].ID)
}

func TestPanelRepository_OrderingAndKeyframeToggle(t *testing.T) {
	client := newTestClient(t)
	repo := NewPanelRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	second := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 2, 0)
	first := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 1, 1)
	zeroth := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 1, 0)
	for _, panel := range []*entity.MangaPanel{second, first, zeroth} {
		require.NoError(t, repo.Create(ctx, panel))
	}

	panels, err := repo.ListByProject(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, panels, 3)
	assert.Equal(t, []string{zeroth.ID, first.ID, second.ID}, []string{panels[0].ID, panels[1].ID, panels[2].ID})

	count, err := repo.CountOnPage(ctx, p.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	toggled, err := repo.ToggleKeyframe(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, toggled)
	assert.True(t, toggled.IsKeyframe)

	keyframes, err := repo.ListByProject(ctx, p.ID, &repository.PanelFilter{KeyframesOnly: true})
	require.NoError(t, err)
	require.Len(t, keyframes, 1)
	assert.Equal(t, first.ID, keyframes[0].ID)

	toggled, err = repo.ToggleKeyframe(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsKeyframe)

	missing, err := repo.ToggleKeyframe(ctx, "00000000-0000-0000-0000-00000000dead")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func countRows(t *testing.T, client *Client, model any, where string, arg any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(model).Where(where, arg).Count(&n).Error)
	return n
}

func TestProjectRepository_DeleteCascadesToChildren(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	db := client.DB()
	p := seedProject(t, client, entity.ProjectStatusFunding)
	other := seedProject(t, client, entity.ProjectStatusDraft)

	panel := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 1, 0)
	otherPanel := entity.NewMangaPanel(other.ID, other.CreatedBy, 1, 1, 0)
	sess := entity.NewStorySession(p.ID, p.CreatedBy)
	for _, row := range []any{
		entity.NewCharacterSeed(p.ID, p.CreatedBy),
		panel,
		otherPanel,
		sess,
		&entity.FundingTransaction{ProjectID: p.ID, UserID: p.CreatedBy, Amount: 10, CreditsReceived: 1000, PriceAtPurchase: 0.01},
		&entity.ProjectRight{ProjectID: p.ID, HolderID: p.CreatedBy, RightsType: "anime", Percentage: 10},
	} {
		require.NoError(t, db.Create(row).Error)
	}
	require.NoError(t, db.Create(&entity.DirectorChoice{ProjectID: p.ID, PanelID: panel.ID, ChoiceType: "panel_variation"}).Error)
	require.NoError(t, db.Create(entity.NewStoryTurn(sess.ID, entity.TurnRoleUser, "hi", nil)).Error)
	require.NoError(t, NewProvenanceRepository(client).Create(ctx, &entity.ProvenanceLog{
		ProjectID: p.ID, EntityType: "projects", EntityID: p.ID, Action: entity.ProvenanceInsert,
	}))

	require.NoError(t, NewProjectRepository(client).Delete(ctx, p.ID))

	for _, model := range []any{&entity.CharacterSeed{}, &entity.MangaPanel{}, &entity.DirectorChoice{}, &entity.FundingTransaction{}, &entity.ProjectRight{}, &entity.StorySession{}} {
		assert.Zero(t, countRows(t, client, model, "project_id = ?", p.ID), "%T", model)
	}
	assert.Zero(t, countRows(t, client, &entity.StoryTurn{}, "session_id = ?", sess.ID))
	assert.Equal(t, int64(1), countRows(t, client, &entity.ProvenanceLog{}, "project_id = ?", p.ID))
	assert.Equal(t, int64(1), countRows(t, client, &entity.MangaPanel{}, "project_id = ?", other.ID))
}

func TestPanelRepository_DeleteRemovesChoices(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	db := client.DB()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	doomed := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 1, 0)
	kept := entity.NewMangaPanel(p.ID, p.CreatedBy, 1, 1, 1)
	require.NoError(t, db.Create(doomed).Error)
	require.NoError(t, db.Create(kept).Error)
	require.NoError(t, db.Create(&entity.DirectorChoice{ProjectID: p.ID, PanelID: doomed.ID, ChoiceType: "panel_variation"}).Error)
	require.NoError(t, db.Create(&entity.DirectorChoice{ProjectID: p.ID, PanelID: kept.ID, ChoiceType: "panel_variation"}).Error)

	tx := NewTxManager(client, nil)
	require.NoError(t, tx.WithTransaction(ctx, func(ctx context.Context) error {
		return NewPanelRepository(client).Delete(ctx, doomed.ID)
	}))

	assert.Zero(t, countRows(t, client, &entity.DirectorChoice{}, "panel_id = ?", doomed.ID))
	assert.Equal(t, int64(1), countRows(t, client, &entity.DirectorChoice{}, "panel_id = ?", kept.ID))
	assert.Equal(t, int64(1), countRows(t, client, &entity.MangaPanel{}, "project_id = ?", p.ID))
}

func TestForeignKeyDDL(t *testing.T) {
	ddl := foreignKeyDDL(entity.ForeignKey{Table: "director_choices", Column: "panel_id", RefTable: "manga_panels"})
	assert.Contains(t, ddl, "DROP CONSTRAINT IF EXISTS director_choices_panel_id_fkey")
	assert.Contains(t, ddl, "FOREIGN KEY (panel_id) REFERENCES manga_panels(id) ON DELETE CASCADE NOT VALID")

	for _, fk := range entity.ForeignKeys() {
		assert.NotEqual(t, "provenance_logs", fk.Table)
	}
}

func TestProvenanceRepository_ListAndImmutability(t *testing.T) {
	client := newTestClient(t)
	repo := NewProvenanceRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 105; i++ {
		entityType := "manga_panels"
		if i%2 == 0 {
			entityType = "character_seeds"
		}
		require.NoError(t, repo.Create(ctx, &entity.ProvenanceLog{
			ProjectID:  p.ID,
			EntityType: entityType,
			EntityID:   p.ID,
			Action:     entity.ProvenanceInsert,
			Details:    datatypes.JSON(`{}`),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	logs, err := repo.ListByProject(ctx, p.ID, repository.ProvenanceFilter{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, logs, entity.ProvenanceLimit)
	assert.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))

	panels, err := repo.ListByProject(ctx, p.ID, repository.ProvenanceFilter{EntityType: "manga_panels", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, panels, 10)
	for _, l := range panels {
		assert.Equal(t, "manga_panels", l.EntityType)
	}

	err = client.DB().Save(logs[0]).Error
	assert.True(t, errors.Is(err, entity.ErrProvenanceImmutable))
	err = client.DB().Delete(logs[0]).Error
	assert.True(t, errors.Is(err, entity.ErrProvenanceImmutable))
}

func TestUserRoleRepository_GrantIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	profiles := NewProfileRepository(client)
	roles := NewUserRoleRepository(client)
	ctx := context.Background()

	profile := entity.NewProfile("Mika@Example.com", "Mika")
	require.NoError(t, profile.SetPassword("password123"))
	require.NoError(t, profiles.Create(ctx, profile))

	require.NoError(t, roles.Grant(ctx, profile.ID, entity.AppRoleCreator))
	require.NoError(t, roles.Grant(ctx, profile.ID, entity.AppRoleCreator))

	list, err := roles.ListRoles(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.AppRole{entity.AppRoleCreator}, list)

	ok, err := roles.HasRole(ctx, entity.AppRoleAdmin, profile.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	byEmail, err := profiles.GetByEmail(ctx, "mika@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.True(t, byEmail.CheckPassword("password123"))
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	tx := NewTxManager(client, NewUserContext(client))
	repo := NewProjectRepository(client)
	ctx := context.Background()

	boom := errors.New("boom")
	var createdID string
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		p := entity.NewProject("00000000-0000-0000-0000-000000000001", "Rollback")
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		createdID = p.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, createdID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTxManager_AfterCommitHooks(t *testing.T) {
	client := newTestClient(t)
	tx := NewTxManager(client, NewUserContext(client))
	repo := NewProjectRepository(client)
	ctx := context.Background()

	var seen []string
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		p := entity.NewProject("00000000-0000-0000-0000-000000000001", "Hooks")
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		repository.AfterCommit(ctx, func(hookCtx context.Context) {
			assert.Nil(t, hookCtx.Value(repository.TxKey{}))
			got, err := repo.GetByID(hookCtx, p.ID)
			require.NoError(t, err)
			assert.NotNil(t, got)
			seen = append(seen, "outer")
		})
		return tx.WithTransaction(ctx, func(ctx context.Context) error {
			repository.AfterCommit(ctx, func(context.Context) { seen = append(seen, "nested") })
			assert.Empty(t, seen)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "nested"}, seen)

	seen = nil
	err = tx.WithTransaction(ctx, func(ctx context.Context) error {
		repository.AfterCommit(ctx, func(context.Context) { seen = append(seen, "rolled back") })
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, seen)

	repository.AfterCommit(ctx, func(context.Context) { seen = append(seen, "no tx") })
	assert.Equal(t, []string{"no tx"}, seen)
}

func TestCharacterRepository_ListIsCreationOrdered(t *testing.T) {
	client := newTestClient(t)
	repo := NewCharacterRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	base := time.Now()
	var ids []string
	for i := 0; i < 3; i++ {
		c := entity.NewCharacterSeed(p.ID, p.CreatedBy)
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		c.Personality = entity.StringList{"Brave", "Loyal"}
		require.NoError(t, repo.Create(ctx, c))
		ids = append(ids, c.ID)
	}

	list, err := repo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, c := range list {
		assert.Equal(t, ids[i], c.ID)
		assert.Equal(t, entity.StringList{"Brave", "Loyal"}, c.Personality)
	}
}

func TestStoryTurnRepository_ListRecentIsChronological(t *testing.T) {
	client := newTestClient(t)
	sessions := NewStorySessionRepository(client)
	turns := NewStoryTurnRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	s := entity.NewStorySession(p.ID, p.CreatedBy)
	require.NoError(t, sessions.Create(ctx, s))

	base := time.Now()
	for i, content := range []string{"a", "b", "c", "d"} {
		turn := entity.NewStoryTurn(s.ID, entity.TurnRoleUser, content, nil)
		turn.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, turns.Create(ctx, turn))
	}

	recent, err := turns.ListRecent(ctx, s.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "d", recent[1].Content)
}

func TestProjectRightRepository_SumPercentage(t *testing.T) {
	client := newTestClient(t)
	repo := NewProjectRightRepository(client)
	ctx := context.Background()
	p := seedProject(t, client, entity.ProjectStatusDraft)

	total, err := repo.SumPercentage(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, repo.Create(ctx, &entity.ProjectRight{ProjectID: p.ID, HolderID: p.CreatedBy, RightsType: "merch", Percentage: 30}))
	require.NoError(t, repo.Create(ctx, &entity.ProjectRight{ProjectID: p.ID, HolderID: p.CreatedBy, RightsType: "streaming", Percentage: 25.5}))

	total, err = repo.SumPercentage(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 55.5, total, 1e-9)
}

func TestLLMUsageEventRepository_SumTokensByWorkflow(t *testing.T) {
	client := newTestClient(t)
	repo := NewLLMUsageEventRepository(client)
	ctx := context.Background()

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	const user = "00000000-0000-0000-0000-000000000001"
	events := []*entity.LLMUsageEvent{
		{UserID: user, Workflow: "panel_variations", Provider: "gateway", Model: "m", TokensPrompt: 100, TokensCompletion: 50, CreatedAt: day.Add(time.Hour)},
		{UserID: user, Workflow: "panel_variations", Provider: "gateway", Model: "m", TokensPrompt: 10, TokensCompletion: 5, CreatedAt: day.Add(2 * time.Hour)},
		{UserID: user, Workflow: "story_drafter", Provider: "gateway", Model: "m", TokensPrompt: 7, TokensCompletion: 3, CreatedAt: day.Add(3 * time.Hour)},
		// 窗口之外
		{UserID: user, Workflow: "story_drafter", Provider: "gateway", Model: "m", TokensPrompt: 1000, CreatedAt: day.Add(-time.Hour)},
		{UserID: "00000000-0000-0000-0000-000000000002", Workflow: "story_drafter", Provider: "gateway", Model: "m", TokensPrompt: 1000, CreatedAt: day.Add(time.Hour)},
	}
	for _, e := range events {
		require.NoError(t, repo.Create(ctx, e))
	}

	got, err := repo.SumTokensByWorkflow(ctx, user, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"panel_variations": 165, "story_drafter": 10}, got)

	empty, err := repo.SumTokensByWorkflow(ctx, user, day.Add(48*time.Hour), day.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
