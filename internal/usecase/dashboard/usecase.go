package dashboard

import (
	"context"
	"fmt"

	domainChat "lending-backend/internal/domain/livechat"
	domainLoan "lending-backend/internal/domain/loan"
	domainSupport "lending-backend/internal/domain/support"

	"github.com/shopspring/decimal"
)

type loanStats interface {
	CountByStatus(ctx context.Context) (map[domainLoan.Status]int64, error)
	SumApproved(ctx context.Context) (decimal.Decimal, error)
}

type paymentStats interface {
	SumSucceeded(ctx context.Context) (decimal.Decimal, error)
}

type disbursementStats interface {
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
}

type supportStats interface {
	CountByStatus(ctx context.Context, status domainSupport.Status) (int64, error)
}

type chatStats interface {
	CountByStatus(ctx context.Context, status domainChat.Status) (int64, error)
}

type StatsDTO struct {
	Applications   map[string]int64 `json:"applications"`
	TotalApproved  decimal.Decimal  `json:"total_approved"`
	FeesCollected  decimal.Decimal  `json:"fees_collected"`
	TotalDisbursed decimal.Decimal  `json:"total_disbursed"`
	OpenTickets    int64            `json:"open_tickets"`
	WaitingChats   int64            `json:"waiting_chats"`
}

type Usecase struct {
	loans         loanStats
	payments      paymentStats
	disbursements disbursementStats
	support       supportStats
	chats         chatStats
}

func NewUsecase(l loanStats, p paymentStats, d disbursementStats, s supportStats, c chatStats) *Usecase {
	return &Usecase{loans: l, payments: p, disbursements: d, support: s, chats: c}
}

var allStatuses = []domainLoan.Status{
	domainLoan.StatusPending, domainLoan.StatusUnderReview, domainLoan.StatusApproved,
	domainLoan.StatusRejected, domainLoan.StatusFeePending, domainLoan.StatusFeePaid,
	domainLoan.StatusDisbursed,
}

// Stats reports every loan status, including those with no applications.
func (u *Usecase) Stats(ctx context.Context) (*StatsDTO, error) {
	counts, err := u.loans.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	out := &StatsDTO{Applications: make(map[string]int64, len(allStatuses))}
	for _, s := range allStatuses {
		out.Applications[string(s)] = counts[s]
	}
	if out.TotalApproved, err = u.loans.SumApproved(ctx); err != nil {
		return nil, fmt.Errorf("sum approved: %w", err)
	}
	if out.FeesCollected, err = u.payments.SumSucceeded(ctx); err != nil {
		return nil, fmt.Errorf("sum fees: %w", err)
	}
	if out.TotalDisbursed, err = u.disbursements.SumCompleted(ctx); err != nil {
		return nil, fmt.Errorf("sum disbursed: %w", err)
	}
	if out.OpenTickets, err = u.support.CountByStatus(ctx, domainSupport.StatusOpen); err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	if out.WaitingChats, err = u.chats.CountByStatus(ctx, domainChat.StatusWaitingAgent); err != nil {
		return nil, fmt.Errorf("count chats: %w", err)
	}
	return out, nil
}
