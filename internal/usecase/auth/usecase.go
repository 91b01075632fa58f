package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainReferral "lending-backend/internal/domain/referral"
	domain "lending-backend/internal/domain/user"
	"lending-backend/internal/domain/uow"
	"lending-backend/pkg/id"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const issuer = "lending-backend"

type Usecase struct {
	users  domain.Repository
	uow    uow.UnitOfWork
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewUsecase(users domain.Repository, tx uow.UnitOfWork, secret string, ttl time.Duration) *Usecase {
	return &Usecase{users: users, uow: tx, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Register creates a borrower account. A known referral code links the new
// user to the referrer with a pending referral.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*TokenDTO, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *domain.User
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Users.GetByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		var referrer *domain.User
		if code := strings.TrimSpace(in.ReferralCode); code != "" {
			ref, err := r.Users.GetByReferralCode(ctx, code)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownReferral
			}
			if err != nil {
				return err
			}
			referrer = ref
		}

		usr := &domain.User{
			UserID:       id.NewID32(),
			Email:        email,
			Phone:        strings.TrimSpace(in.Phone),
			PasswordHash: hash,
			Role:         domain.RoleBorrower,
			FullName:     strings.TrimSpace(in.FullName),
			IsActive:     true,
		}
		if referrer != nil {
			usr.ReferredByID = &referrer.ID
		}
		if err := createWithCode(ctx, r.Users, usr); err != nil {
			return err
		}
		if referrer != nil {
			if err := r.Referrals.Create(ctx, &domainReferral.Referral{
				ReferrerID: referrer.ID,
				ReferredID: usr.ID,
				Code:       referrer.ReferralCode,
				Status:     domainReferral.StatusPending,
			}); err != nil {
				return err
			}
		}
		created = usr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.issue(created)
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*TokenDTO, error) {
	usr, err := u.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(usr.PasswordHash, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !usr.IsActive {
		return nil, domain.ErrInactive
	}
	now := u.now().UTC()
	usr.LastLoginAt = &now
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return u.issue(usr)
}

func (u *Usecase) issue(usr *domain.User) (*TokenDTO, error) {
	now := u.now().UTC()
	exp := now.Add(u.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: usr.UserID,
		Role:   string(usr.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   usr.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(u.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &TokenDTO{Token: signed, ExpiresAt: exp, UserID: usr.UserID, Role: string(usr.Role)}, nil
}

func (u *Usecase) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the current, active account. Role
// comes from the database so demotions apply before the token expires.
func (u *Usecase) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := u.parse(token)
	if err != nil {
		return nil, err
	}
	usr, err := u.users.GetByUserID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !usr.IsActive {
		return nil, domain.ErrInactive
	}
	p := usr.Principal()
	return &p, nil
}

// referralCodeAttempts bounds how often a colliding referral code is redrawn.
const referralCodeAttempts = 5

// createWithCode inserts usr with a fresh referral code, drawing another one
// when the unique index reports a collision.
func createWithCode(ctx context.Context, users domain.Repository, usr *domain.User) error {
	var err error
	for i := 0; i < referralCodeAttempts; i++ {
		usr.ReferralCode = id.NewCode(8)
		if err = users.Create(ctx, usr); !errors.Is(err, domain.ErrReferralCodeTaken) {
			return err
		}
	}
	return err
}

// CreateAdmin is used by the seed command.
func (u *Usecase) CreateAdmin(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := u.users.GetByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	usr := &domain.User{
		UserID:       id.NewID32(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		FullName:     fullName,
		IsActive:     true,
	}
	if err := createWithCode(ctx, u.users, usr); err != nil {
		return nil, err
	}
	return usr, nil
}
