package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	loanDomain "lending-backend/internal/domain/loan"
	payDomain "lending-backend/internal/domain/payment"
	"lending-backend/pkg/id"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func makePayment(loanID, userID uint64, method payDomain.Method) *payDomain.Payment {
	return &payDomain.Payment{
		PaymentID:         id.NewID32(),
		Reference:         uuid.NewString(),
		LoanApplicationID: loanID,
		UserID:            userID,
		Amount:            decimal.NewFromInt(50),
		Currency:          "USD",
		Method:            method,
		Provider:          payDomain.ProviderCardGateway,
		Status:            payDomain.StatusPending,
	}
}

func TestPayment_LookupsAndSums(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := makeUser(t, db, "a@example.com")
	l := makeApplication(t, db, u.ID, loanDomain.StatusFeePending)

	p := makePayment(l.ID, u.ID, payDomain.MethodCard)
	p.ProviderRef = "pi_123"
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByProviderRef(ctx, payDomain.ProviderCardGateway, "pi_123")
	if err != nil || got.PaymentID != p.PaymentID {
		t.Fatalf("GetByProviderRef: %v", err)
	}
	open, err := repo.ListOpenByLoan(ctx, l.ID)
	if err != nil || len(open) != 1 {
		t.Fatalf("ListOpenByLoan: %v len=%d", err, len(open))
	}
	if ok, _ := repo.HasSucceeded(ctx, l.ID); ok {
		t.Fatal("HasSucceeded before success")
	}

	p.Succeed(time.Now().UTC())
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, err := repo.HasSucceeded(ctx, l.ID); err != nil || !ok {
		t.Fatalf("HasSucceeded: %v %v", ok, err)
	}
	sum, err := repo.SumSucceeded(ctx)
	if err != nil {
		t.Fatalf("SumSucceeded: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(50)) {
		t.Errorf("sum = %s, want 50", sum)
	}
	all, err := repo.ListByLoan(ctx, l.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListByLoan: %v len=%d", err, len(all))
	}
}

func TestPayment_TxHashUnique(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := makeUser(t, db, "a@example.com")
	l := makeApplication(t, db, u.ID, loanDomain.StatusFeePending)

	hash := "0xabc"
	p1 := makePayment(l.ID, u.ID, payDomain.MethodCrypto)
	p1.TxHash = &hash
	if err := repo.Create(ctx, p1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok, err := repo.TxHashExists(ctx, hash); err != nil || !ok {
		t.Fatalf("TxHashExists: %v %v", ok, err)
	}

	// two payments without a hash coexist under the unique index
	if err := repo.Create(ctx, makePayment(l.ID, u.ID, payDomain.MethodCrypto)); err != nil {
		t.Fatalf("Create nil hash: %v", err)
	}
	if err := repo.Create(ctx, makePayment(l.ID, u.ID, payDomain.MethodCrypto)); err != nil {
		t.Fatalf("Create nil hash: %v", err)
	}

	dup := makePayment(l.ID, u.ID, payDomain.MethodCrypto)
	dup.TxHash = &hash
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatal("duplicate tx hash should fail")
	}
}

func TestPayment_ListExpiredCrypto(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := makeUser(t, db, "a@example.com")
	l := makeApplication(t, db, u.ID, loanDomain.StatusFeePending)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	expired := makePayment(l.ID, u.ID, payDomain.MethodCrypto)
	expired.ExpiresAt = &past
	live := makePayment(l.ID, u.ID, payDomain.MethodCrypto)
	live.ExpiresAt = &future
	card := makePayment(l.ID, u.ID, payDomain.MethodCard)
	card.ExpiresAt = &past
	for _, p := range []*payDomain.Payment{expired, live, card} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListExpiredCrypto(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListExpiredCrypto: %v", err)
	}
	if len(got) != 1 || got[0].PaymentID != expired.PaymentID {
		t.Fatalf("got %d rows, want the expired crypto payment only", len(got))
	}
}

func TestPayment_NotFound(t *testing.T) {
	repo := NewPaymentRepository(openTestDB(t))
	if _, err := repo.GetByPaymentID(context.Background(), "nope"); !errors.Is(err, payDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
