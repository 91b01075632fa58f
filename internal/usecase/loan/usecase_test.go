package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/notification"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	"lending-backend/internal/domain/user"
	"lending-backend/internal/testutil/loanmock"
	"lending-backend/internal/testutil/notifymock"
	"lending-backend/internal/testutil/settingmock"
	"lending-backend/internal/testutil/uowmock"
	"lending-backend/internal/testutil/usermock"
	settingUC "lending-backend/internal/usecase/setting"

	"github.com/shopspring/decimal"
)

func newSettings(values map[string]string) *settingUC.Usecase {
	return settingUC.NewUsecase(settingmock.New(values), nil)
}

func newUsecase(loans *loanmock.Repo, n *notifymock.Recorder) *Usecase {
	borrower := &user.User{ID: 10}
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Users: usermock.Existing(borrower)})
	return NewUsecase(loans, tx, newSettings(nil), n)
}

func TestUsecase_Apply(t *testing.T) {
	tests := []struct {
		name    string
		in      ApplyInput
		active  *loan.Application
		wantErr error
	}{
		{"happy path", ApplyInput{Amount: decimal.NewFromInt(1000), TermMonths: 12, Purpose: " school "}, nil, nil},
		{"amount below minimum", ApplyInput{Amount: decimal.NewFromInt(100), TermMonths: 12}, nil, loan.ErrAmountOutOfRange},
		{"amount above maximum", ApplyInput{Amount: decimal.NewFromInt(60000), TermMonths: 12}, nil, loan.ErrAmountOutOfRange},
		{"term too short", ApplyInput{Amount: decimal.NewFromInt(1000), TermMonths: 1}, nil, loan.ErrTermOutOfRange},
		{"term too long", ApplyInput{Amount: decimal.NewFromInt(1000), TermMonths: 61}, nil, loan.ErrTermOutOfRange},
		{
			"active application exists",
			ApplyInput{Amount: decimal.NewFromInt(1000), TermMonths: 12},
			&loan.Application{ApplicationID: "OLD", Status: loan.StatusFeePending},
			loan.ErrActiveApplicationExists,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			created := false
			loans := &loanmock.Repo{
				GetActiveByUserIDFn: func(context.Context, uint64) (*loan.Application, error) {
					if tt.active != nil {
						return tt.active, nil
					}
					return nil, loan.ErrNotFound
				},
				CreateFn: func(_ context.Context, a *loan.Application) error {
					created = true
					if a.Status != loan.StatusPending || a.UserID != 10 || len(a.ApplicationID) != 32 {
						t.Fatalf("unexpected application: %+v", a)
					}
					return nil
				},
			}
			n := &notifymock.Recorder{}
			dto, err := newUsecase(loans, n).Apply(context.Background(), 10, tt.in)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want err=%v, got %v", tt.wantErr, err)
				}
				if created || len(n.Messages) != 0 {
					t.Fatal("nothing should be created or sent on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !created || dto.Purpose != "school" || dto.Status != "pending" {
				t.Fatalf("dto = %+v created=%v", dto, created)
			}
			if !n.Has(10, notification.KindApplicationReceived) {
				t.Fatalf("application_received not sent: %v", n.Kinds())
			}
		})
	}
}

func TestUsecase_Get(t *testing.T) {
	app := &loan.Application{ID: 1, ApplicationID: "LN-1", UserID: 10, Status: loan.StatusPending}
	loans := &loanmock.Repo{
		GetByApplicationIDFn: func(context.Context, string) (*loan.Application, error) { return app, nil },
	}
	uc := newUsecase(loans, &notifymock.Recorder{})
	ctx := context.Background()

	if _, err := uc.Get(ctx, user.Principal{ID: 10}, "LN-1"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := uc.Get(ctx, user.Principal{ID: 99, Role: user.RoleAdmin}, "LN-1"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := uc.Get(ctx, user.Principal{ID: 99}, "LN-1"); !errors.Is(err, loan.ErrForbidden) {
		t.Fatalf("stranger: want ErrForbidden, got %v", err)
	}
}

func TestUsecase_UploadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		app     loan.Application
		caller  uint64
		wantErr error
	}{
		{"first upload", loan.Application{UserID: 10, Status: loan.StatusPending, IDVerificationStatus: loan.IDNotSubmitted}, 10, nil},
		{"resubmit after rejection", loan.Application{UserID: 10, Status: loan.StatusUnderReview, IDVerificationStatus: loan.IDRejected, IDVerificationNote: "blurry"}, 10, nil},
		{"already verified", loan.Application{UserID: 10, Status: loan.StatusUnderReview, IDVerificationStatus: loan.IDVerified}, 10, loan.ErrIDAlreadyVerified},
		{"terminal loan", loan.Application{UserID: 10, Status: loan.StatusRejected, IDVerificationStatus: loan.IDSubmitted}, 10, loan.ErrInvalidTransition},
		{"not owner", loan.Application{UserID: 10, Status: loan.StatusPending}, 11, loan.ErrForbidden},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := tt.app
			saved := false
			loans := &loanmock.Repo{
				GetByApplicationIDForUpdateFn: func(context.Context, string) (*loan.Application, error) { return &app, nil },
				SaveFn: func(_ context.Context, a *loan.Application) error {
					saved = true
					return nil
				},
			}
			dto, err := newUsecase(loans, &notifymock.Recorder{}).UploadDocuments(context.Background(),
				user.Principal{ID: tt.caller}, "LN", DocumentsInput{FrontURL: "https://x/f.jpg", BackURL: "https://x/b.jpg", SelfieURL: "https://x/s.jpg"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || saved {
					t.Fatalf("want err=%v without save, got %v saved=%v", tt.wantErr, err, saved)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if dto.IDVerificationStatus != "submitted" || dto.IDVerificationNote != "" || !saved {
				t.Fatalf("dto = %+v", dto)
			}
		})
	}
}

func TestUsecase_Quote(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{}, nil, newSettings(map[string]string{
		setting.KeyFeePercent: "2", setting.KeyFeeFixed: "5", setting.KeyBaseCurrency: "EUR",
	}), &notifymock.Recorder{})
	ctx := context.Background()

	q, err := uc.Quote(ctx, decimal.NewFromInt(2000))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// 2000*2% + 5 = 45, above the 25 minimum
	if !q.ProcessingFee.Equal(decimal.NewFromInt(45)) || q.Currency != "EUR" {
		t.Fatalf("quote = %+v", q)
	}

	q, err = uc.Quote(ctx, decimal.NewFromInt(600))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// 600*2% + 5 = 17, raised to the minimum
	if !q.ProcessingFee.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("minimum fee not applied: %s", q.ProcessingFee)
	}

	if _, err := uc.Quote(ctx, decimal.NewFromInt(10)); !errors.Is(err, loan.ErrAmountOutOfRange) {
		t.Fatalf("want ErrAmountOutOfRange, got %v", err)
	}
}

func TestUsecase_List(t *testing.T) {
	now := time.Now().UTC()
	loans := &loanmock.Repo{
		ListFn: func(_ context.Context, f loan.ListFilter) ([]loan.Application, int64, error) {
			if f.UserID != 10 || f.Limit != 5 {
				t.Fatalf("filter = %+v", f)
			}
			return []loan.Application{{ApplicationID: "A", Status: loan.StatusPending, CreatedAt: now}}, 7, nil
		},
	}
	uc := newUsecase(loans, &notifymock.Recorder{})
	out, err := uc.ListMine(context.Background(), 10, 5, 0)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if out.Total != 7 || len(out.Items) != 1 || out.Items[0].ApplicationID != "A" {
		t.Fatalf("list = %+v", out)
	}
	if _, err := uc.List(context.Background(), loan.ListFilter{Status: "bogus"}); !errors.Is(err, loan.ErrUnknownStatus) {
		t.Fatalf("want ErrUnknownStatus, got %v", err)
	}
}
