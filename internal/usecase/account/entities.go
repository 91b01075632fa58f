package account

import (
	"time"

	domain "lending-backend/internal/domain/user"

	"github.com/shopspring/decimal"
)

type ProfileDTO struct {
	UserID           string          `json:"user_id"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone,omitempty"`
	Role             string          `json:"role"`
	FullName         string          `json:"full_name"`
	DateOfBirth      *time.Time      `json:"date_of_birth,omitempty"`
	Address          string          `json:"address,omitempty"`
	City             string          `json:"city,omitempty"`
	Country          string          `json:"country,omitempty"`
	EmploymentStatus string          `json:"employment_status,omitempty"`
	MonthlyIncome    decimal.Decimal `json:"monthly_income"`
	IDDocumentType   string          `json:"id_document_type,omitempty"`
	HasNationalID    bool            `json:"has_national_id"`
	ReferralCode     string          `json:"referral_code"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName         *string
	Phone            *string
	DateOfBirth      *time.Time
	Address          *string
	City             *string
	Country          *string
	EmploymentStatus *string
	MonthlyIncome    *decimal.Decimal
}

type UpdateKYCInput struct {
	NationalIDNumber string
	IDDocumentType   string
}

type ChangePasswordInput struct {
	Current string
	New     string
}

func toDTO(u *domain.User) *ProfileDTO {
	return &ProfileDTO{
		UserID:           u.UserID,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             string(u.Role),
		FullName:         u.FullName,
		DateOfBirth:      u.DateOfBirth,
		Address:          u.Address,
		City:             u.City,
		Country:          u.Country,
		EmploymentStatus: u.EmploymentStatus,
		MonthlyIncome:    u.MonthlyIncome,
		IDDocumentType:   u.IDDocumentType,
		HasNationalID:    u.NationalIDNumber != "",
		ReferralCode:     u.ReferralCode,
		CreatedAt:        u.CreatedAt,
	}
}
