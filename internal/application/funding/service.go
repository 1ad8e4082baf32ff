// Package funding 联合曲线资助
package funding

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/metrics"
	"anime-forge-api/pkg/tracer"
)

// Result 一次资助的结果
type Result struct {
	Project     *entity.Project            `json:"project"`
	Transaction *entity.FundingTransaction `json:"transaction"`
}

// Service 资助服务
type Service struct {
	projects     repository.ProjectRepository
	transactions repository.FundingTransactionRepository
	txm          repository.Transactor
	guard        *access.Guard
	recorder     *provenance.Recorder
	curve        service.BondingCurve
	minAmount    float64
}

func NewService(
	projects repository.ProjectRepository,
	transactions repository.FundingTransactionRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
	curve service.BondingCurve,
	minAmount float64,
) *Service {
	return &Service{
		projects:     projects,
		transactions: transactions,
		txm:          txm,
		guard:        guard,
		recorder:     recorder,
		curve:        curve,
		minAmount:    minAmount,
	}
}

func (s *Service) checkAmount(amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return apperrors.ErrInvalidAmount
	}
	if s.minAmount > 0 && amount < s.minAmount {
		return apperrors.ErrInvalidAmount.WithDetail("amount is below the minimum contribution")
	}
	return nil
}

// Quote 预览资助结果，不写入
func (s *Service) Quote(ctx context.Context, projectID string, amount float64) (*service.FundingQuote, error) {
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.Status.OpenForFunding() {
		return nil, apperrors.ErrFundingClosed
	}
	q, err := s.curve.Quote(amount, p.BondingCurvePrice)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Fund 在单个事务中完成加锁读取、条件更新、流水与溯源
func (s *Service) Fund(ctx context.Context, projectID string, amount float64) (*Result, error) {
	ctx, span := tracer.Start(ctx, "funding.Fund", tracer.Project(projectID))
	res, err := s.fund(ctx, projectID, amount)
	tracer.End(span, err)
	metrics.FundingTransactionsTotal.WithLabelValues(fundingStatus(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.FundingAmountTotal.Add(res.Transaction.Amount)
	metrics.FundingCreditsTotal.Add(float64(res.Transaction.CreditsReceived))
	return res, nil
}

func (s *Service) fund(ctx context.Context, projectID string, amount float64) (*Result, error) {
	sess, err := s.guard.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkAmount(amount); err != nil {
		return nil, err
	}

	var (
		project *entity.Project
		txn     *entity.FundingTransaction
	)
	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.projects.GetByIDForUpdate(txCtx, projectID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperrors.ErrProjectNotFound
		}
		if !p.Status.OpenForFunding() {
			return apperrors.ErrFundingClosed
		}

		q, err := s.curve.Quote(amount, p.BondingCurvePrice)
		if err != nil {
			return err
		}

		current := p.FundingCurrent + amount
		percentage := entity.FundingPercentageFor(current, p.FundingGoal)
		status := p.Status
		if status == entity.ProjectStatusFunding && entity.FundingGoalReached(current, p.FundingGoal) {
			status = entity.ProjectStatusFunded
		}

		ok, err := s.projects.ApplyFunding(txCtx, repository.FundingUpdate{
			ProjectID:         p.ID,
			ExpectedPrice:     p.BondingCurvePrice,
			Amount:            amount,
			NewPrice:          q.NewPrice,
			FundingPercentage: percentage,
			Status:            status,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrFundingConflict
		}

		txn = &entity.FundingTransaction{
			ProjectID:       p.ID,
			UserID:          sess.UserID,
			Amount:          amount,
			CreditsReceived: q.Credits,
			PriceAtPurchase: q.PriceAtPurchase,
			TransactionType: entity.TransactionTypeFund,
			Metadata:        datatypes.JSONMap{"new_price": q.NewPrice},
			CreatedAt:       time.Now(),
		}
		if err := s.transactions.Create(txCtx, txn); err != nil {
			return err
		}

		details := map[string]any{
			"amount":            amount,
			"credits_received":  q.Credits,
			"price_at_purchase": q.PriceAtPurchase,
			"new_price":         q.NewPrice,
		}
		if status != p.Status {
			details["status"] = status
		}
		if err := batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.FundingTransaction{}.TableName(),
			EntityID:   txn.ID,
			Action:     entity.ProvenanceInsert,
			Details:    details,
		}); err != nil {
			return err
		}

		p.FundingCurrent = current
		p.FundingPercentage = percentage
		p.BondingCurvePrice = q.NewPrice
		p.Status = status
		p.UpdatedAt = time.Now()
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)

	logger.Info(ctx, "project funded",
		"project_id", project.ID,
		"amount", amount,
		"credits", txn.CreditsReceived,
		"new_price", project.BondingCurvePrice,
	)
	return &Result{Project: project, Transaction: txn}, nil
}

// ListTransactions 资助流水，created_at 倒序
func (s *Service) ListTransactions(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.FundingTransaction], error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.transactions.ListByProject(ctx, p.ID, pagination)
}

func fundingStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return "invalid"
	case errors.Is(err, apperrors.ErrFundingClosed):
		return "closed"
	case errors.Is(err, apperrors.ErrFundingConflict):
		return "conflict"
	default:
		return "error"
	}
}
