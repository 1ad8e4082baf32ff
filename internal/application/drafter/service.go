// Package drafter 故事共创对话
package drafter

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"gorm.io/datatypes"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// 送入模型的历史轮数
const historyTurns = 20

// 单条消息长度上限（字符）
const maxMessageRunes = 4000

// Drafter 对话模型
type Drafter interface {
	Invoke(ctx context.Context, in *wfmodel.DrafterInput) (*schema.Message, error)
}

// QuotaChecker 生成前的用量检查
type QuotaChecker interface {
	CheckDailyTokens(ctx context.Context, userID string) error
}

// 助手回复来源
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Opened 新建的会话及欢迎消息
type Opened struct {
	Session *entity.StorySession `json:"session"`
	Welcome *entity.StoryTurn    `json:"welcome"`
}

// Exchange 一问一答
type Exchange struct {
	UserTurn      *entity.StoryTurn `json:"user_turn"`
	AssistantTurn *entity.StoryTurn `json:"assistant_turn"`
	Source        string            `json:"source"`
}

// Service 故事共创服务
type Service struct {
	sessions repository.StorySessionRepository
	turns    repository.StoryTurnRepository
	txm      repository.Transactor
	guard    *access.Guard
	drafter  Drafter
	quota    QuotaChecker
	params   wfmodel.LLMParams
	pick     func(n int) int
}

func NewService(
	sessions repository.StorySessionRepository,
	turns repository.StoryTurnRepository,
	txm repository.Transactor,
	guard *access.Guard,
	drafter Drafter,
	quota QuotaChecker,
	llm config.LLMConfig,
) *Service {
	return &Service{
		sessions: sessions,
		turns:    turns,
		txm:      txm,
		guard:    guard,
		drafter:  drafter,
		quota:    quota,
		params:   wfmodel.ParamsFromConfig(llm.Workflow(service.WorkflowStoryDrafter)),
		pick:     rand.Intn,
	}
}

// WithPicker 替换备用回复的选择函数
func (s *Service) WithPicker(pick func(n int) int) *Service {
	s.pick = pick
	return s
}

// Open 为项目新建会话并写入欢迎消息
func (s *Service) Open(ctx context.Context, projectID string) (*Opened, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sess := entity.NewStorySession(p.ID, session.UserID(ctx))
	var welcome *entity.StoryTurn
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sessions.Create(txCtx, sess); err != nil {
			return err
		}
		welcome = entity.NewStoryTurn(sess.ID, entity.TurnRoleAssistant, WelcomeMessage, nil)
		return s.turns.Create(txCtx, welcome)
	})
	if err != nil {
		return nil, err
	}
	return &Opened{Session: sess, Welcome: welcome}, nil
}

// ListSessions 项目下当前用户的会话，管理员可见全部
func (s *Service) ListSessions(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.StorySession], error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	admin, err := s.guard.IsAdmin(ctx)
	if err != nil {
		return nil, err
	}
	userID := session.UserID(ctx)
	if admin {
		userID = ""
	}
	return s.sessions.ListByProject(ctx, p.ID, userID, pagination)
}

// ownSession 读取会话，仅创建者或管理员可见
func (s *Service) ownSession(ctx context.Context, projectID, sessionID string) (*entity.StorySession, *entity.Project, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || sess.ProjectID != p.ID {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	if sess.UserID != session.UserID(ctx) {
		admin, err := s.guard.IsAdmin(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !admin {
			return nil, nil, apperrors.ErrSessionNotFound
		}
	}
	return sess, p, nil
}

// ListTurns 会话消息，按时间正序
func (s *Service) ListTurns(ctx context.Context, projectID, sessionID string, pagination repository.Pagination) (*repository.PagedResult[*entity.StoryTurn], error) {
	sess, _, err := s.ownSession(ctx, projectID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.turns.ListBySession(ctx, sess.ID, pagination)
}

// Post 追加用户消息并生成助手回复
func (s *Service) Post(ctx context.Context, projectID, sessionID, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("content is required")
	}
	if len([]rune(content)) > maxMessageRunes {
		return nil, apperrors.ErrInvalidParam.WithDetail("content is too long")
	}

	sess, p, err := s.ownSession(ctx, projectID, sessionID)
	if err != nil {
		return nil, err
	}
	recent, err := s.turns.ListRecent(ctx, sess.ID, historyTurns)
	if err != nil {
		return nil, err
	}

	reply, source := s.reply(ctx, p, recent, content)
	meta, _ := json.Marshal(map[string]string{"source": source})

	userTurn := entity.NewStoryTurn(sess.ID, entity.TurnRoleUser, content, nil)
	assistantTurn := entity.NewStoryTurn(sess.ID, entity.TurnRoleAssistant, reply, datatypes.JSON(meta))
	assistantTurn.CreatedAt = userTurn.CreatedAt.Add(time.Millisecond)

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.turns.Create(txCtx, userTurn); err != nil {
			return err
		}
		if err := s.turns.Create(txCtx, assistantTurn); err != nil {
			return err
		}
		return s.sessions.Touch(txCtx, sess.ID)
	})
	if err != nil {
		return nil, err
	}
	return &Exchange{UserTurn: userTurn, AssistantTurn: assistantTurn, Source: source}, nil
}

func (s *Service) reply(ctx context.Context, p *entity.Project, recent []*entity.StoryTurn, content string) (string, string) {
	if s.drafter != nil && s.quotaOK(ctx) {
		history := make([]wfmodel.DraftTurn, 0, len(recent))
		for _, t := range recent {
			history = append(history, wfmodel.DraftTurn{Role: t.Role, Content: t.Content})
		}
		out, err := s.drafter.Invoke(ctx, &wfmodel.DrafterInput{
			LLMParams:   s.params,
			ProjectName: p.Name,
			StoryBible:  p.StoryBible,
			History:     history,
			Message:     content,
		})
		if err == nil && out != nil && strings.TrimSpace(out.Content) != "" {
			return strings.TrimSpace(out.Content), SourceLLM
		}
		logger.Warn(ctx, "story drafter failed, using canned reply", "project_id", p.ID, "error", err)
	}

	replies := CannedReplies(content)
	i := s.pick(len(replies))
	if i < 0 || i >= len(replies) {
		i = 0
	}
	return replies[i], SourceFallback
}

func (s *Service) quotaOK(ctx context.Context) bool {
	if s.quota == nil {
		return true
	}
	if err := s.quota.CheckDailyTokens(ctx, session.UserID(ctx)); err != nil {
		logger.Warn(ctx, "story drafter skipped", "error", err)
		return false
	}
	return true
}
