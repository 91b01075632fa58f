package mysql

import (
	"context"

	approvalDomain "lending-backend/internal/domain/approval"

	"gorm.io/gorm"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

// Tx helper: bind this repo to a transaction when needed.
func (r *ApprovalRepository) Tx(ctx context.Context, fn func(repo *ApprovalRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ApprovalRepository{db: tx})
	})
}

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Approval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApprovalRepository) GetByLoanID(ctx context.Context, loanNumericID uint64) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).First(&out).Error
	if err != nil {
		return nil, notFound(err, approvalDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ApprovalRepository) GetByApprovalID(ctx context.Context, approvalID string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	err := r.db.WithContext(ctx).Where("approval_id = ?", approvalID).First(&out).Error
	if err != nil {
		return nil, notFound(err, approvalDomain.ErrNotFound)
	}
	return &out, nil
}
