package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending-backend/internal/domain/approval"
	"lending-backend/internal/domain/audit"
	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/notification"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	"lending-backend/internal/domain/user"
	"lending-backend/internal/testutil/approvalmock"
	"lending-backend/internal/testutil/auditmock"
	"lending-backend/internal/testutil/loanmock"
	"lending-backend/internal/testutil/notifymock"
	"lending-backend/internal/testutil/settingmock"
	"lending-backend/internal/testutil/uowmock"
	settingUC "lending-backend/internal/usecase/setting"

	"github.com/shopspring/decimal"
)

var admin = user.Principal{ID: 1, UserID: "admin", Role: user.RoleAdmin, IP: "10.0.0.1"}

type fixture struct {
	uc     *Usecase
	loans  *loanmock.Repo
	apps   *approvalmock.Repo
	audits *auditmock.Repo
	sent   *notifymock.Recorder
	saved  *loan.Application
}

func newFixture(app *loan.Application, values map[string]string) *fixture {
	f := &fixture{
		apps:   &approvalmock.Repo{},
		audits: &auditmock.Repo{},
		sent:   &notifymock.Recorder{},
	}
	f.loans = &loanmock.Repo{
		GetByApplicationIDForUpdateFn: func(context.Context, string) (*loan.Application, error) {
			if app == nil {
				return nil, loan.ErrNotFound
			}
			return app, nil
		},
		SaveFn: func(_ context.Context, a *loan.Application) error {
			f.saved = a
			return nil
		},
	}
	tx := uowmock.Passthrough(uow.Repos{Loans: f.loans, Approvals: f.apps, Audits: f.audits})
	f.uc = NewUsecase(tx, settingUC.NewUsecase(settingmock.New(values), nil), f.sent)
	f.uc.now = func() time.Time { return time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC) }
	return f
}

func reviewing() *loan.Application {
	return &loan.Application{
		ID: 777, ApplicationID: "LN-123", UserID: 42,
		RequestedAmount:      decimal.NewFromInt(5000),
		Status:               loan.StatusUnderReview,
		IDVerificationStatus: loan.IDVerified,
	}
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestUsecase_Approve(t *testing.T) {
	tests := []struct {
		name    string
		app     func() *loan.Application
		values  map[string]string
		in      ApproveInput
		setup   func(f *fixture)
		wantErr error
	}{
		{name: "happy path", app: reviewing, in: ApproveInput{ApprovedAmount: amount(4000)}},
		{
			name: "not found",
			app:  func() *loan.Application { return nil },
			in:   ApproveInput{ApprovedAmount: amount(4000)}, wantErr: loan.ErrNotFound,
		},
		{
			name: "still pending",
			app: func() *loan.Application {
				a := reviewing()
				a.Status = loan.StatusPending
				return a
			},
			in: ApproveInput{ApprovedAmount: amount(4000)}, wantErr: loan.ErrInvalidTransition,
		},
		{
			name: "already approved",
			app: func() *loan.Application {
				a := reviewing()
				a.Status = loan.StatusFeePending
				return a
			},
			in: ApproveInput{ApprovedAmount: amount(4000)}, wantErr: loan.ErrAlreadyApproved,
		},
		{
			name: "approval row exists",
			app:  reviewing,
			in:   ApproveInput{ApprovedAmount: amount(4000)},
			setup: func(f *fixture) {
				f.apps.GetByLoanIDFn = func(context.Context, uint64) (*approval.Approval, error) {
					return &approval.Approval{ApprovalID: "AP-OLD"}, nil
				}
			},
			wantErr: loan.ErrAlreadyApproved,
		},
		{
			name: "id not verified",
			app: func() *loan.Application {
				a := reviewing()
				a.IDVerificationStatus = loan.IDSubmitted
				return a
			},
			in: ApproveInput{ApprovedAmount: amount(4000)}, wantErr: loan.ErrIDNotVerified,
		},
		{
			name: "id check disabled",
			app: func() *loan.Application {
				a := reviewing()
				a.IDVerificationStatus = loan.IDNotSubmitted
				return a
			},
			values: map[string]string{setting.KeyRequireIDVerification: "false"},
			in:     ApproveInput{ApprovedAmount: amount(4000)},
		},
		{
			name: "exceeds request", app: reviewing,
			in: ApproveInput{ApprovedAmount: amount(5001)}, wantErr: loan.ErrApprovedExceedsRequest,
		},
		{
			name: "approval insert fails", app: reviewing,
			in: ApproveInput{ApprovedAmount: amount(4000)},
			setup: func(f *fixture) {
				f.apps.CreateFn = func(context.Context, *approval.Approval) error { return errors.New("duplicate") }
			},
			wantErr: errors.New("duplicate"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.app(), tt.values)
			if tt.setup != nil {
				tt.setup(f)
			}
			in := tt.in
			in.ApplicationID = "LN-123"
			dto, err := f.uc.Approve(context.Background(), admin, in)

			if tt.wantErr != nil {
				if err == nil || (!errors.Is(err, tt.wantErr) && err.Error() != tt.wantErr.Error()) {
					t.Fatalf("want err=%v, got %v", tt.wantErr, err)
				}
				if f.saved != nil || len(f.sent.Messages) != 0 {
					t.Fatal("nothing should be saved or sent on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			// 4000 * 5% = 200, default rate 12.5
			if !dto.ProcessingFee.Equal(amount(200)) || !dto.InterestRate.Equal(decimal.RequireFromString("12.5")) {
				t.Fatalf("dto = %+v", dto)
			}
			if f.saved.Status != loan.StatusApproved || f.saved.ApprovedAt == nil || *f.saved.ReviewedBy != admin.ID {
				t.Fatalf("saved = %+v", f.saved)
			}
			if dto.Application.Status != "approved" || !dto.Application.ApprovedAmount.Equal(amount(4000)) {
				t.Fatalf("application dto = %+v", dto.Application)
			}
			if got := f.audits.Actions(); len(got) != 1 || got[0] != audit.ActionLoanApproved {
				t.Fatalf("audit actions = %v", got)
			}
			if f.audits.Logs[0].IPAddress != admin.IP {
				t.Fatalf("audit ip = %q", f.audits.Logs[0].IPAddress)
			}
			if !f.sent.Has(42, notification.KindApproved) || !f.sent.Messages[0].SMS {
				t.Fatalf("approval notice missing: %+v", f.sent.Messages)
			}
		})
	}
}

func TestUsecase_Approve_ExplicitRate(t *testing.T) {
	f := newFixture(reviewing(), nil)
	rate := decimal.RequireFromString("9.75")
	dto, err := f.uc.Approve(context.Background(), admin, ApproveInput{ApplicationID: "LN-123", ApprovedAmount: amount(300), InterestRate: &rate})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	// 300 * 5% = 15, raised to the 25 minimum
	if !dto.InterestRate.Equal(rate) || !dto.ProcessingFee.Equal(amount(25)) {
		t.Fatalf("dto = %+v", dto)
	}
}

func TestUsecase_StartReview(t *testing.T) {
	f := newFixture(&loan.Application{ApplicationID: "LN-1", UserID: 42, Status: loan.StatusPending}, nil)
	out, err := f.uc.StartReview(context.Background(), admin, "LN-1")
	if err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	if out.Status != "under_review" || f.saved.ReviewedAt == nil {
		t.Fatalf("out = %+v", out)
	}
	if !f.sent.Has(42, notification.KindUnderReview) {
		t.Fatalf("kinds = %v", f.sent.Kinds())
	}

	// a second start is refused
	if _, err := f.uc.StartReview(context.Background(), admin, "LN-1"); !errors.Is(err, loan.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestUsecase_Reject(t *testing.T) {
	tests := []struct {
		name    string
		status  loan.Status
		reason  string
		wantErr error
	}{
		{"from pending", loan.StatusPending, "income too low", nil},
		{"from under review", loan.StatusUnderReview, "incomplete", nil},
		{"blank reason", loan.StatusPending, "  ", ErrReasonRequired},
		{"after approval", loan.StatusApproved, "changed mind", loan.ErrInvalidTransition},
		{"already disbursed", loan.StatusDisbursed, "x", loan.ErrInvalidTransition},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&loan.Application{ApplicationID: "LN-1", UserID: 42, Status: tt.status}, nil)
			out, err := f.uc.Reject(context.Background(), admin, ReviewInput{ApplicationID: "LN-1", Reason: tt.reason})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want err=%v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if out.Status != "rejected" || out.RejectionReason != tt.reason {
				t.Fatalf("out = %+v", out)
			}
			if got := f.audits.Actions(); len(got) != 1 || got[0] != audit.ActionLoanRejected {
				t.Fatalf("audit = %v", got)
			}
			if !f.sent.Has(42, notification.KindRejected) {
				t.Fatalf("kinds = %v", f.sent.Kinds())
			}
		})
	}
}

func TestUsecase_ReviewID(t *testing.T) {
	tests := []struct {
		name    string
		idState loan.IDVerificationStatus
		status  loan.Status
		verify  bool
		wantErr error
	}{
		{"verify submitted", loan.IDSubmitted, loan.StatusUnderReview, true, nil},
		{"reject submitted", loan.IDSubmitted, loan.StatusPending, false, nil},
		{"verify twice", loan.IDVerified, loan.StatusUnderReview, true, loan.ErrIDAlreadyVerified},
		{"nothing uploaded", loan.IDNotSubmitted, loan.StatusPending, true, loan.ErrIDNotSubmitted},
		{"previously rejected", loan.IDRejected, loan.StatusPending, false, loan.ErrIDNotSubmitted},
		{"terminal loan", loan.IDSubmitted, loan.StatusRejected, true, loan.ErrInvalidTransition},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&loan.Application{ApplicationID: "LN-1", UserID: 42, Status: tt.status, IDVerificationStatus: tt.idState}, nil)
			var (
				err  error
				want = loan.IDRejected
				kind = notification.KindIDRejected
			)
			if tt.verify {
				_, err = f.uc.VerifyID(context.Background(), admin, "LN-1")
				want, kind = loan.IDVerified, notification.KindIDVerified
			} else {
				_, err = f.uc.RejectID(context.Background(), admin, ReviewInput{ApplicationID: "LN-1", Reason: "blurry photo"})
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want err=%v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if f.saved.IDVerificationStatus != want {
				t.Fatalf("id status = %s, want %s", f.saved.IDVerificationStatus, want)
			}
			if !f.sent.Has(42, kind) {
				t.Fatalf("kinds = %v", f.sent.Kinds())
			}
			if len(f.audits.Logs) != 1 {
				t.Fatalf("audit rows = %d", len(f.audits.Logs))
			}
		})
	}
}

func TestUsecase_RejectID_RequiresNote(t *testing.T) {
	f := newFixture(&loan.Application{ApplicationID: "LN-1", Status: loan.StatusPending, IDVerificationStatus: loan.IDSubmitted}, nil)
	if _, err := f.uc.RejectID(context.Background(), admin, ReviewInput{ApplicationID: "LN-1"}); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("want ErrReasonRequired, got %v", err)
	}
}
