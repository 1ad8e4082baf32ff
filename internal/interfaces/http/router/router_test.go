package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/application/director"
	"anime-forge-api/internal/application/funding"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/interfaces/http/dto"
	"anime-forge-api/internal/interfaces/http/handler"
	"anime-forge-api/internal/testutil"
	wfmodel "anime-forge-api/internal/workflow/model"
	apperrors "anime-forge-api/pkg/errors"
)

const (
	ownerID  = "00000000-0000-0000-0000-00000000000a"
	backerID = "00000000-0000-0000-0000-00000000000b"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenAuth 令牌即用户映射
type tokenAuth map[string]string

func (a tokenAuth) Authenticate(token string) (*session.Session, error) {
	if uid, ok := a[token]; ok {
		return session.New(uid, []string{"creator"}), nil
	}
	return nil, apperrors.ErrTokenInvalid
}

var testTokens = tokenAuth{"owner-token": ownerID, "backer-token": backerID}

// stalePriceProjects 每次更新都像是被并发请求抢先
type stalePriceProjects struct {
	repository.ProjectRepository
}

func (stalePriceProjects) ApplyFunding(context.Context, repository.FundingUpdate) (bool, error) {
	return false, nil
}

type gatewayGenerator struct{ err error }

func (g gatewayGenerator) GenerateVariations(context.Context, *wfmodel.VariationsInput) (*wfmodel.VariationsOutput, error) {
	return nil, g.err
}

type quotaFunc func() error

func (f quotaFunc) CheckDailyTokens(context.Context, string) error { return f() }

func newRouter(t *testing.T, h *Handlers) *gin.Engine {
	t.Helper()
	return New(&config.Config{}, h, testTokens, nil).Engine()
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.ErrorCode
}

func TestLaunchpadFund(t *testing.T) {
	dl := testutil.NewDataLayer(t)
	curve := service.NewBondingCurve(0.01, 1.01)
	fundingSvc := funding.NewService(dl.Projects, dl.Transactions, dl.TxManager, dl.Guard, dl.Recorder, curve, 0)
	r := newRouter(t, &Handlers{Launchpad: handler.NewLaunchpadHandler(nil, fundingSvc)})

	open := dl.SeedProject(t, ownerID, entity.ProjectStatusFunding)
	closed := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)

	t.Run("funds open project", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/v1/launchpad/"+open.ID+"/fund", "backer-token", map[string]any{"amount": 100})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp dto.Response[funding.Result]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Data.Transaction)
		assert.Equal(t, int64(10000), resp.Data.Transaction.CreditsReceived)
		assert.Equal(t, backerID, resp.Data.Transaction.UserID)
	})

	for _, tt := range []struct {
		name string
		body any
	}{
		{"zero amount", map[string]any{"amount": 0}},
		{"negative amount", map[string]any{"amount": -5}},
		{"missing amount", map[string]any{}},
		{"non-numeric amount", map[string]any{"amount": "ten"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/v1/launchpad/"+open.ID+"/fund", "backer-token", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, string(apperrors.CodeInvalidAmount), errorCode(t, w))
		})
	}

	t.Run("closed project", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/v1/launchpad/"+closed.ID+"/fund", "backer-token", map[string]any{"amount": 10})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, string(apperrors.CodeFundingClosed), errorCode(t, w))
	})

	t.Run("price changed concurrently", func(t *testing.T) {
		stale := funding.NewService(stalePriceProjects{dl.Projects}, dl.Transactions, dl.TxManager, dl.Guard, dl.Recorder, curve, 0)
		r := newRouter(t, &Handlers{Launchpad: handler.NewLaunchpadHandler(nil, stale)})

		w := do(t, r, http.MethodPost, "/v1/launchpad/"+open.ID+"/fund", "backer-token", map[string]any{"amount": 10})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, string(apperrors.CodeFundingConflict), errorCode(t, w))

		page, err := dl.Transactions.ListByProject(context.Background(), open.ID, repository.NewPagination(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/v1/launchpad/"+open.ID+"/fund", "", map[string]any{"amount": 10})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPanelVariations_GatewayFailuresKeepVariations(t *testing.T) {
	dl := testutil.NewDataLayer(t)
	p := dl.SeedProject(t, ownerID, entity.ProjectStatusDraft)
	panel := entity.NewMangaPanel(p.ID, ownerID, 1, 1, 0)
	panel.Description = "Rooftop duel"
	require.NoError(t, dl.Panels.Create(context.Background(), panel))
	path := "/v1/projects/" + p.ID + "/panels/" + panel.ID + "/variations"

	tests := []struct {
		name    string
		gen     director.Generator
		quota   director.QuotaChecker
		status  int
		outcome director.Outcome
	}{
		{
			name:    "gateway rate limited",
			gen:     gatewayGenerator{err: errors.New("error, status code: 429, message: slow down")},
			status:  http.StatusTooManyRequests,
			outcome: director.OutcomeRateLimited,
		},
		{
			name:    "gateway payment required",
			gen:     gatewayGenerator{err: errors.New("error, status code: 402, message: add credits")},
			status:  http.StatusPaymentRequired,
			outcome: director.OutcomePaymentRequired,
		},
		{
			name:    "daily quota exhausted",
			gen:     gatewayGenerator{},
			quota:   quotaFunc(func() error { return apperrors.ErrPaymentRequired }),
			status:  http.StatusTooManyRequests,
			outcome: director.OutcomeRateLimited,
		},
		{
			name:    "other gateway error",
			gen:     gatewayGenerator{err: errors.New("unexpected EOF")},
			status:  http.StatusOK,
			outcome: director.OutcomeFallback,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := director.NewService(dl.Characters, dl.Panels, dl.Choices, dl.TxManager, dl.Guard, dl.Recorder,
				tt.gen, tt.quota, config.LLMConfig{})
			r := newRouter(t, &Handlers{Director: handler.NewDirectorHandler(svc)})

			w := do(t, r, http.MethodPost, path, "owner-token", map[string]any{"stylePreferences": []string{"noir"}})
			require.Equal(t, tt.status, w.Code, w.Body.String())

			var resp dto.Response[director.VariationsResult]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.outcome, resp.Data.Outcome)
			require.Len(t, resp.Data.Variations, entity.VariationCount)
			for i, v := range resp.Data.Variations {
				assert.NotEmpty(t, v.ID, "variation %d", i)
				assert.Contains(t, v.Prompt, "Rooftop duel")
			}
		})
	}
}
