package user

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is disabled")
	ErrHasActiveLoans     = errors.New("account has loan applications in progress")
	ErrUnknownReferral    = errors.New("unknown referral code")
	ErrReferralCodeTaken  = errors.New("referral code already in use")
)

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"-"`
	UserID           string          `gorm:"size:32;uniqueIndex:ux_users_user_id" json:"user_id"`
	Email            string          `gorm:"size:255;not null;uniqueIndex:ux_users_email" json:"email"`
	Phone            string          `gorm:"size:32" json:"phone,omitempty"`
	PasswordHash     string          `gorm:"size:100;not null" json:"-"`
	Role             Role            `gorm:"size:16;not null;default:'borrower'" json:"role"`
	FullName         string          `gorm:"size:150" json:"full_name"`
	DateOfBirth      *time.Time      `gorm:"type:date" json:"date_of_birth,omitempty"`
	Address          string          `gorm:"size:255" json:"address,omitempty"`
	City             string          `gorm:"size:100" json:"city,omitempty"`
	Country          string          `gorm:"size:2" json:"country,omitempty"`
	EmploymentStatus string          `gorm:"size:32" json:"employment_status,omitempty"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"monthly_income"`
	NationalIDNumber string          `gorm:"size:64" json:"national_id_number,omitempty"`
	IDDocumentType   string          `gorm:"size:32" json:"id_document_type,omitempty"`
	ReferralCode     string          `gorm:"size:16;uniqueIndex:ux_users_referral_code" json:"referral_code"`
	ReferredByID     *uint64         `json:"-"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt      *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
	DeletedBy        string          `gorm:"size:32" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID     uint64
	UserID string
	Role   Role
	IP     string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (u *User) Principal() Principal {
	return Principal{ID: u.ID, UserID: u.UserID, Role: u.Role}
}
