// Package testutil 应用层测试共用的 SQLite 数据层
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/infrastructure/persistence/postgres"
)

// DataLayer 基于内存 SQLite 的仓储集合
type DataLayer struct {
	Client       *postgres.Client
	TxManager    *postgres.TxManager
	Profiles     *postgres.ProfileRepository
	Roles        *postgres.UserRoleRepository
	Projects     *postgres.ProjectRepository
	Characters   *postgres.CharacterRepository
	Panels       *postgres.PanelRepository
	Choices      *postgres.DirectorChoiceRepository
	Transactions *postgres.FundingTransactionRepository
	Sessions     *postgres.StorySessionRepository
	Turns        *postgres.StoryTurnRepository
	Styles       *postgres.StyleRepository
	Rights       *postgres.ProjectRightRepository
	Provenance   *postgres.ProvenanceRepository
	Usage        *postgres.LLMUsageEventRepository
	Guard        *access.Guard
	Recorder     *provenance.Recorder
}

// NewDataLayer 每个测试独立的内存库，已完成迁移
func NewDataLayer(t *testing.T) *DataLayer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := postgres.NewClientFromDB(db)
	require.NoError(t, postgres.Migrate(context.Background(), client))

	dl := &DataLayer{
		Client:       client,
		TxManager:    postgres.NewTxManager(client, postgres.NewUserContext(client)),
		Profiles:     postgres.NewProfileRepository(client),
		Roles:        postgres.NewUserRoleRepository(client),
		Projects:     postgres.NewProjectRepository(client),
		Characters:   postgres.NewCharacterRepository(client),
		Panels:       postgres.NewPanelRepository(client),
		Choices:      postgres.NewDirectorChoiceRepository(client),
		Transactions: postgres.NewFundingTransactionRepository(client),
		Sessions:     postgres.NewStorySessionRepository(client),
		Turns:        postgres.NewStoryTurnRepository(client),
		Styles:       postgres.NewStyleRepository(client),
		Rights:       postgres.NewProjectRightRepository(client),
		Provenance:   postgres.NewProvenanceRepository(client),
		Usage:        postgres.NewLLMUsageEventRepository(client),
	}
	dl.Guard = access.NewGuard(dl.Projects, dl.Roles)
	dl.Recorder = provenance.NewRecorder(dl.Provenance, nil, nil, config.ProvenanceModeSync)
	return dl
}

// AsUser 带会话的上下文
func AsUser(userID string, roles ...entity.AppRole) context.Context {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return session.WithSession(context.Background(), session.New(userID, names))
}

// SeedProject 以 owner 身份创建项目
func (dl *DataLayer) SeedProject(t *testing.T, ownerID string, status entity.ProjectStatus) *entity.Project {
	t.Helper()
	p := entity.NewProject(ownerID, "Skyblade")
	p.Status = status
	require.NoError(t, dl.Projects.Create(context.Background(), p))
	return p
}

// ProvenanceCount 项目下的溯源事件数
func (dl *DataLayer) ProvenanceCount(t *testing.T, projectID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, dl.Client.DB().Model(&entity.ProvenanceLog{}).Where("project_id = ?", projectID).Count(&n).Error)
	return n
}
