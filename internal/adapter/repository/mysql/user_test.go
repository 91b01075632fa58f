package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	userDomain "lending-backend/internal/domain/user"

	mysqldrv "github.com/go-sql-driver/mysql"
)

func TestUser_Lookups(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := makeUser(t, db, "  Mixed@Example.COM ")

	if u.Email != "mixed@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if got, err := repo.GetByEmail(ctx, "MIXED@example.com"); err != nil || got.ID != u.ID {
		t.Fatalf("GetByEmail: %v %+v", err, got)
	}
	if got, err := repo.GetByUserID(ctx, u.UserID); err != nil || got.ID != u.ID {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got, err := repo.GetByReferralCode(ctx, u.ReferralCode); err != nil || got.ID != u.ID {
		t.Fatalf("GetByReferralCode: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, userDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUser_DeleteFreesEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := makeUser(t, db, "gone@example.com")

	if err := repo.Delete(ctx, u, "admin-public-id"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, userDomain.ErrNotFound) {
		t.Fatalf("deleted user still visible: %v", err)
	}
	// same address can register again
	makeUser(t, db, "gone@example.com")
}

func TestUser_CreateMapsUniqueViolations(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	first := makeUser(t, db, "first@example.com")

	dupCode := &userDomain.User{
		UserID: "c0000000000000000000000000000001", Email: "second@example.com",
		PasswordHash: "x", Role: userDomain.RoleBorrower, ReferralCode: first.ReferralCode, IsActive: true,
	}
	if err := repo.Create(ctx, dupCode); !errors.Is(err, userDomain.ErrReferralCodeTaken) {
		t.Fatalf("duplicate referral code: want ErrReferralCodeTaken, got %v", err)
	}

	dupEmail := &userDomain.User{
		UserID: "c0000000000000000000000000000002", Email: "FIRST@example.com",
		PasswordHash: "x", Role: userDomain.RoleBorrower, ReferralCode: "ZZZZZZZZ", IsActive: true,
	}
	if err := repo.Create(ctx, dupEmail); !errors.Is(err, userDomain.ErrEmailTaken) {
		t.Fatalf("duplicate email: want ErrEmailTaken, got %v", err)
	}
}

func TestUniqueViolation(t *testing.T) {
	my := &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'ABCDEFGH' for key 'users.ux_users_referral_code'"}
	if !uniqueViolation(fmt.Errorf("insert: %w", my), "referral_code") {
		t.Fatal("mysql duplicate on referral code not detected")
	}
	if uniqueViolation(my, "email") {
		t.Fatal("mysql duplicate matched the wrong column")
	}
	if uniqueViolation(&mysqldrv.MySQLError{Number: 1452, Message: "referral_code"}, "referral_code") {
		t.Fatal("non-duplicate mysql error matched")
	}
	if uniqueViolation(nil, "email") || uniqueViolation(errors.New("connection reset"), "email") {
		t.Fatal("unrelated error matched")
	}
}
