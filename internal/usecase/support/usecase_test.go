package support

import (
	"context"
	"errors"
	"testing"

	"lending-backend/internal/adapter/repository/mysql"
	domainAudit "lending-backend/internal/domain/audit"
	domainNotification "lending-backend/internal/domain/notification"
	domain "lending-backend/internal/domain/support"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/testutil/notifymock"
	"lending-backend/internal/testutil/testdb"

	"gorm.io/gorm"
)

var (
	owner    = domainUser.Principal{ID: 10, Role: domainUser.RoleBorrower}
	stranger = domainUser.Principal{ID: 11, Role: domainUser.RoleBorrower}
	staff    = domainUser.Principal{ID: 1, Role: domainUser.RoleAdmin, IP: "10.0.0.9"}
)

func setup(t *testing.T) (*Usecase, *gorm.DB, *notifymock.Recorder) {
	t.Helper()
	db := testdb.Open(t)
	sent := &notifymock.Recorder{}
	return NewUsecase(mysql.NewSupportRepository(db), mysql.NewGormUoW(db), sent), db, sent
}

func TestCreate(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	got, err := uc.Create(ctx, owner.ID, CreateInput{Subject: " Fee question ", Body: "How much?", Category: "PAYMENT"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Subject != "Fee question" || got.Category != "payment" || got.Status != "open" || len(got.MessageID) != 32 {
		t.Fatalf("ticket = %+v", got)
	}
	other, err := uc.Create(ctx, owner.ID, CreateInput{Subject: "x", Body: "y", Category: "nonsense"})
	if err != nil || other.Category != "general" {
		t.Fatalf("unknown category = %+v, %v", other, err)
	}
	if _, err := uc.Create(ctx, owner.ID, CreateInput{Subject: " ", Body: "y"}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}

	mine, err := uc.ListMine(ctx, owner.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListMine = %d, %v", len(mine), err)
	}
}

func TestReplyThread(t *testing.T) {
	uc, _, sent := setup(t)
	ctx := context.Background()
	ticket, err := uc.Create(ctx, owner.ID, CreateInput{Subject: "Payout", Body: "When?"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Reply(ctx, stranger, ReplyInput{MessageID: ticket.MessageID, Body: "hi"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger: want ErrForbidden, got %v", err)
	}

	got, err := uc.Reply(ctx, staff, ReplyInput{MessageID: ticket.MessageID, Body: "Within two days."})
	if err != nil {
		t.Fatalf("staff reply: %v", err)
	}
	if got.Status != "answered" || len(got.Replies) != 1 || !got.Replies[0].IsStaff {
		t.Fatalf("after staff reply = %+v", got)
	}
	if !sent.Has(owner.ID, domainNotification.KindSupportReply) {
		t.Fatalf("kinds = %v", sent.Kinds())
	}

	got, err = uc.Reply(ctx, owner, ReplyInput{MessageID: ticket.MessageID, Body: "Thanks, one more thing"})
	if err != nil {
		t.Fatalf("owner reply: %v", err)
	}
	if got.Status != "open" || len(got.Replies) != 2 || got.Replies[1].IsStaff {
		t.Fatalf("after owner reply = %+v", got)
	}
	if len(sent.Messages) != 1 {
		t.Fatalf("owner reply should not notify, sent %d", len(sent.Messages))
	}
}

func TestClose(t *testing.T) {
	uc, db, _ := setup(t)
	ctx := context.Background()
	audits := mysql.NewAuditRepository(db)

	a, _ := uc.Create(ctx, owner.ID, CreateInput{Subject: "a", Body: "a"})
	b, _ := uc.Create(ctx, owner.ID, CreateInput{Subject: "b", Body: "b"})

	if _, err := uc.Close(ctx, owner, a.MessageID); err != nil {
		t.Fatalf("owner close: %v", err)
	}
	closed, err := uc.Close(ctx, staff, b.MessageID)
	if err != nil {
		t.Fatalf("staff close: %v", err)
	}
	if closed.Status != "closed" || closed.ClosedAt == nil {
		t.Fatalf("closed = %+v", closed)
	}
	logs, _, _ := audits.List(ctx, domainAudit.Filter{EntityType: "support"})
	if len(logs) != 1 || logs[0].EntityID != b.MessageID {
		t.Fatalf("only the staff close is audited: %+v", logs)
	}

	if _, err := uc.Reply(ctx, owner, ReplyInput{MessageID: a.MessageID, Body: "again"}); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("reply on closed: want ErrClosed, got %v", err)
	}
	if _, err := uc.Close(ctx, owner, a.MessageID); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("close twice: want ErrClosed, got %v", err)
	}

	list, err := uc.List(ctx, domain.StatusClosed, 10, 0)
	if err != nil || list.Total != 2 {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if _, err := uc.Get(ctx, stranger, a.MessageID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Get stranger: want ErrForbidden, got %v", err)
	}
}
