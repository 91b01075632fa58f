package account

import (
	"context"
	"errors"
	"strings"

	domainAudit "lending-backend/internal/domain/audit"
	domainLoan "lending-backend/internal/domain/loan"
	domain "lending-backend/internal/domain/user"
	"lending-backend/internal/domain/uow"
	"lending-backend/internal/usecase/auth"
)

type Usecase struct {
	users domain.Repository
	uow   uow.UnitOfWork
}

func NewUsecase(users domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{users: users, uow: tx}
}

func (u *Usecase) Profile(ctx context.Context, userID uint64) (*ProfileDTO, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDTO(usr), nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (u *Usecase) UpdateProfile(ctx context.Context, userID uint64, in UpdateProfileInput) (*ProfileDTO, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	set(&usr.FullName, in.FullName)
	set(&usr.Phone, in.Phone)
	set(&usr.Address, in.Address)
	set(&usr.City, in.City)
	set(&usr.EmploymentStatus, in.EmploymentStatus)
	if in.Country != nil {
		usr.Country = strings.ToUpper(strings.TrimSpace(*in.Country))
	}
	if in.DateOfBirth != nil {
		dob := in.DateOfBirth.UTC()
		usr.DateOfBirth = &dob
	}
	if in.MonthlyIncome != nil {
		usr.MonthlyIncome = in.MonthlyIncome.Round(2)
	}
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return toDTO(usr), nil
}

func (u *Usecase) UpdateKYC(ctx context.Context, userID uint64, in UpdateKYCInput) (*ProfileDTO, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	usr.NationalIDNumber = strings.TrimSpace(in.NationalIDNumber)
	usr.IDDocumentType = strings.TrimSpace(in.IDDocumentType)
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return toDTO(usr), nil
}

func (u *Usecase) ChangePassword(ctx context.Context, userID uint64, in ChangePasswordInput) error {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(usr.PasswordHash, in.Current) {
		return domain.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(in.New)
	if err != nil {
		return err
	}
	usr.PasswordHash = hash
	return u.users.Save(ctx, usr)
}

// Delete soft-deletes the caller's account. Refused while any application is
// still moving through the lifecycle. It takes the same user row lock as loan
// Apply.
func (u *Usecase) Delete(ctx context.Context, p domain.Principal) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		usr, err := r.Users.GetByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if _, err := r.Loans.GetActiveByUserID(ctx, usr.ID); err == nil {
			return domain.ErrHasActiveLoans
		} else if !errors.Is(err, domainLoan.ErrNotFound) {
			return err
		}
		if err := r.Users.Delete(ctx, usr, p.UserID); err != nil {
			return err
		}
		return r.Audits.Create(ctx, domainAudit.NewLog(domainAudit.Entry{
			ActorID:    p.ID,
			Action:     domainAudit.ActionUserDeleted,
			EntityType: "user",
			EntityID:   usr.UserID,
			IP:         p.IP,
		}))
	})
}
