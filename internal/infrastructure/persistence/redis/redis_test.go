package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb), mr
}

type countingProjectRepo struct {
	repository.ProjectRepository
	project *entity.Project
	gets    atomic.Int32
}

func (r *countingProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	r.gets.Add(1)
	if r.project == nil || r.project.ID != id {
		return nil, nil
	}
	cp := *r.project
	return &cp, nil
}

func (r *countingProjectRepo) Update(_ context.Context, p *entity.Project) error {
	r.project = p
	return nil
}

func TestCachedProjectRepository_ReadThroughAndInvalidate(t *testing.T) {
	client, _ := newTestClient(t)
	inner := &countingProjectRepo{project: &entity.Project{ID: "p1", Name: "Skyblade", StoryBible: &entity.StoryBible{Logline: "x"}}}
	repo := NewCachedProjectRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := repo.GetByID(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Skyblade", p.Name)
		assert.Equal(t, "x", p.StoryBible.Logline)
	}
	assert.Equal(t, int32(1), inner.gets.Load())

	require.NoError(t, repo.Update(ctx, &entity.Project{ID: "p1", Name: "Renamed"}))
	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedProjectRepository_MissingIsNotCached(t *testing.T) {
	client, mr := newTestClient(t)
	inner := &countingProjectRepo{}
	repo := NewCachedProjectRepository(inner, NewCache(client), time.Minute)

	p, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, mr.Exists(ProjectKey("nope")))
}

func TestCachedProjectRepository_BypassesCacheInTransaction(t *testing.T) {
	client, _ := newTestClient(t)
	inner := &countingProjectRepo{project: &entity.Project{ID: "p1"}}
	repo := NewCachedProjectRepository(inner, NewCache(client), time.Minute)

	txCtx := context.WithValue(context.Background(), repository.TxKey{}, struct{}{})
	_, err := repo.GetByID(txCtx, "p1")
	require.NoError(t, err)
	_, err = repo.GetByID(txCtx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.gets.Load())
}

// stagedProjectRepo 写入先进入 pending，commit 后才对读可见
type stagedProjectRepo struct {
	repository.ProjectRepository
	committed entity.Project
	pending   *entity.Project
}

func (r *stagedProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	if r.committed.ID != id {
		return nil, nil
	}
	cp := r.committed
	return &cp, nil
}

func (r *stagedProjectRepo) ApplyFunding(_ context.Context, u repository.FundingUpdate) (bool, error) {
	next := r.committed
	next.FundingCurrent += u.Amount
	next.BondingCurvePrice = u.NewPrice
	r.pending = &next
	return true, nil
}

func TestCachedProjectRepository_InvalidatesAfterCommit(t *testing.T) {
	client, mr := newTestClient(t)
	inner := &stagedProjectRepo{committed: entity.Project{ID: "p1", BondingCurvePrice: 0.01}}
	repo := NewCachedProjectRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	hooksCtx, runHooks := repository.WithCommitHooks(ctx)
	txCtx := context.WithValue(hooksCtx, repository.TxKey{}, struct{}{})

	_, err := repo.ApplyFunding(txCtx, repository.FundingUpdate{ProjectID: "p1", Amount: 10, NewPrice: 0.0101})
	require.NoError(t, err)

	// 提交前的并发读拿到旧行并写入缓存
	before, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.01, before.BondingCurvePrice)
	assert.True(t, mr.Exists(ProjectKey("p1")))

	inner.committed, inner.pending = *inner.pending, nil
	runHooks(ctx)
	assert.False(t, mr.Exists(ProjectKey("p1")))

	after, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.0101, after.BondingCurvePrice)
	assert.Equal(t, 10.0, after.FundingCurrent)
}

func TestCachedProjectRepository_RollbackKeepsCache(t *testing.T) {
	client, mr := newTestClient(t)
	inner := &stagedProjectRepo{committed: entity.Project{ID: "p1", BondingCurvePrice: 0.01}}
	repo := NewCachedProjectRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)

	hooksCtx, _ := repository.WithCommitHooks(ctx)
	txCtx := context.WithValue(hooksCtx, repository.TxKey{}, struct{}{})
	_, err = repo.ApplyFunding(txCtx, repository.FundingUpdate{ProjectID: "p1", Amount: 10, NewPrice: 0.0101})
	require.NoError(t, err)

	assert.True(t, mr.Exists(ProjectKey("p1")))
}

func TestProfileCache_EvictsOnAuthEvents(t *testing.T) {
	client, mr := newTestClient(t)
	events := session.NewAuthEvents()
	pc := NewProfileCache(NewCache(client), events, time.Minute)
	defer pc.Close()
	ctx := context.Background()

	_, err := pc.GetOrLoad(ctx, "u1", func() (any, error) { return map[string]string{"name": "Mika"}, nil })
	require.NoError(t, err)
	assert.True(t, mr.Exists(ProfileKey("u1")))

	events.Publish(ctx, session.Event{Type: session.EventTokenRefreshed, UserID: "u1"})
	assert.True(t, mr.Exists(ProfileKey("u1")))

	events.Publish(ctx, session.Event{Type: session.EventProfileUpdated, UserID: "u1"})
	assert.False(t, mr.Exists(ProfileKey("u1")))

	pc.Close()
	assert.Equal(t, 0, events.Len())
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()
	key := BuildUserRateLimitKey("u1", "variations")

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// 窗口滑过后重新放行
	limiter.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	ok, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err = limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestRateLimiter_KeysAreScoped(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, BuildUserRateLimitKey("u1", "generate"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, BuildUserRateLimitKey("u1", "api"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "scopes have separate windows")

	ok, err = limiter.Allow(ctx, BuildUserRateLimitKey("u1", "generate"), 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
