package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending-backend/internal/adapter/repository/mysql"
	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/logger"
	"lending-backend/internal/infrastructure/scheduler"
	"lending-backend/internal/testutil/notifymock"
	"lending-backend/internal/testutil/settingmock"
	"lending-backend/internal/testutil/testdb"
	settingUC "lending-backend/internal/usecase/setting"
	"lending-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var clock = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

type fakeExpirer struct {
	n   int
	err error
}

func (f fakeExpirer) ExpireStale(context.Context) (int, error) { return f.n, f.err }

type fakeRegistrar struct{ jobs map[string]string }

func (f *fakeRegistrar) Add(name, spec string, _ scheduler.Job) error {
	if f.jobs == nil {
		f.jobs = map[string]string{}
	}
	f.jobs[name] = spec
	return nil
}

func application(t *testing.T, db *gorm.DB, userID uint64, status domainLoan.Status, updated time.Time) *domainLoan.Application {
	t.Helper()
	a := &domainLoan.Application{
		ApplicationID: id.NewID32(), UserID: userID, TermMonths: 12,
		RequestedAmount: decimal.NewFromInt(1000), ApprovedAmount: decimal.NewFromInt(1000),
		ProcessingFee: decimal.NewFromInt(50), Status: status, StatusUpdatedAt: updated,
	}
	if err := mysql.NewLoanRepository(db).Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSendFeeReminders(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	u := &domainUser.User{UserID: id.NewID32(), Email: "b@example.com", PasswordHash: "x", Role: domainUser.RoleBorrower, ReferralCode: id.NewCode(8), IsActive: true}
	if err := mysql.NewUserRepository(db).Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	stale := application(t, db, u.ID, domainLoan.StatusApproved, clock.Add(-30*time.Hour))
	application(t, db, u.ID, domainLoan.StatusFeePending, clock.Add(-72*time.Hour))
	application(t, db, u.ID, domainLoan.StatusApproved, clock.Add(-2*time.Hour))
	application(t, db, u.ID, domainLoan.StatusDisbursed, clock.Add(-72*time.Hour))

	sent := &notifymock.Recorder{}
	loans := mysql.NewLoanRepository(db)
	uc := NewUsecase(loans, mysql.NewGormUoW(db), settingUC.NewUsecase(settingmock.New(nil), nil), sent, fakeExpirer{}, logger.Discard())
	uc.now = func() time.Time { return clock }

	n, err := uc.SendFeeReminders(ctx)
	if err != nil || n != 2 {
		t.Fatalf("SendFeeReminders = %d, %v", n, err)
	}
	if !sent.Has(u.ID, domainNotification.KindFeeReminder) || sent.Messages[0].Body != "Pay the processing fee of 50.00 USD to receive your loan." {
		t.Fatalf("messages = %+v", sent.Messages)
	}
	got, _ := loans.GetByApplicationID(ctx, stale.ApplicationID)
	if got.FeeReminderSentAt == nil || !got.FeeReminderSentAt.Equal(clock) {
		t.Fatalf("reminder stamp = %v", got.FeeReminderSentAt)
	}

	// same window: nothing new
	if n, err := uc.SendFeeReminders(ctx); err != nil || n != 0 {
		t.Fatalf("second run = %d, %v", n, err)
	}

	// a day later both are due again
	uc.now = func() time.Time { return clock.Add(25 * time.Hour) }
	if n, err := uc.SendFeeReminders(ctx); err != nil || n != 2 {
		t.Fatalf("next window = %d, %v", n, err)
	}
}

func TestSendFeeReminders_Disabled(t *testing.T) {
	db := testdb.Open(t)
	uc := NewUsecase(mysql.NewLoanRepository(db), mysql.NewGormUoW(db),
		settingUC.NewUsecase(settingmock.New(map[string]string{"fee_reminder_hours": "0"}), nil),
		&notifymock.Recorder{}, fakeExpirer{}, logger.Discard())
	if n, err := uc.SendFeeReminders(context.Background()); err != nil || n != 0 {
		t.Fatalf("disabled = %d, %v", n, err)
	}
}

func TestExpireAndRegister(t *testing.T) {
	uc := NewUsecase(nil, nil, nil, nil, fakeExpirer{n: 3}, logger.Discard())
	if n, err := uc.ExpireCryptoQuotes(context.Background()); err != nil || n != 3 {
		t.Fatalf("ExpireCryptoQuotes = %d, %v", n, err)
	}
	failing := NewUsecase(nil, nil, nil, nil, fakeExpirer{err: errors.New("db down")}, logger.Discard())
	if _, err := failing.ExpireCryptoQuotes(context.Background()); err == nil {
		t.Fatal("want error")
	}

	reg := &fakeRegistrar{}
	if err := uc.Register(reg, "0 * * * *", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.jobs["fee_reminders"] != "0 * * * *" || reg.jobs["crypto_expiry"] != CryptoExpirySpec {
		t.Fatalf("jobs = %v", reg.jobs)
	}
}
