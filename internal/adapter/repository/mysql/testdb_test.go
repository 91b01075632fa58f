package mysql

import (
	"context"
	"testing"
	"time"

	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/user"
	"lending-backend/internal/testutil/testdb"
	"lending-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB { return testdb.Open(t) }

func makeUser(t *testing.T, gdb *gorm.DB, email string) *user.User {
	t.Helper()
	u := &user.User{
		UserID:       id.NewID32(),
		Email:        email,
		PasswordHash: "x",
		Role:         user.RoleBorrower,
		FullName:     "Test User",
		ReferralCode: id.NewCode(8),
		IsActive:     true,
	}
	if err := NewUserRepository(gdb).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func makeApplication(t *testing.T, gdb *gorm.DB, userID uint64, status loan.Status) *loan.Application {
	t.Helper()
	a := &loan.Application{
		ApplicationID:        id.NewID32(),
		UserID:               userID,
		RequestedAmount:      decimal.NewFromInt(1000),
		TermMonths:           12,
		Purpose:              "car repair",
		Status:               status,
		StatusUpdatedAt:      time.Now().UTC(),
		IDVerificationStatus: loan.IDNotSubmitted,
	}
	if err := NewLoanRepository(gdb).Create(context.Background(), a); err != nil {
		t.Fatalf("create application: %v", err)
	}
	return a
}
