package payment

import (
	"time"

	domain "lending-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type CryptoInput struct {
	ApplicationID string
	Coin          domain.Coin
}

type TxInput struct {
	PaymentID string
	TxHash    string
}

// AdminInput is a manual confirm or fail by staff.
type AdminInput struct {
	PaymentID string
	Reason    string
}

type PaymentDTO struct {
	PaymentID      string          `json:"payment_id"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"method"`
	Provider       string          `json:"provider"`
	Status         string          `json:"status"`
	ClientSecret   string          `json:"client_secret,omitempty"`
	CryptoCurrency string          `json:"crypto_currency,omitempty"`
	CryptoAmount   decimal.Decimal `json:"crypto_amount"`
	CryptoRate     decimal.Decimal `json:"crypto_rate"`
	WalletAddress  string          `json:"wallet_address,omitempty"`
	TxHash         string          `json:"tx_hash,omitempty"`
	Confirmations  int             `json:"confirmations"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toDTO(p *domain.Payment) PaymentDTO {
	d := PaymentDTO{
		PaymentID:      p.PaymentID,
		Reference:      p.Reference,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         string(p.Method),
		Provider:       p.Provider,
		Status:         string(p.Status),
		ClientSecret:   p.ClientSecret,
		CryptoCurrency: string(p.CryptoCurrency),
		CryptoAmount:   p.CryptoAmount,
		CryptoRate:     p.CryptoRate,
		WalletAddress:  p.WalletAddress,
		Confirmations:  p.Confirmations,
		FailureReason:  p.FailureReason,
		PaidAt:         p.PaidAt,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
	}
	if p.TxHash != nil {
		d.TxHash = *p.TxHash
	}
	// secrets are only useful while the intent can still be confirmed
	if p.Status.Final() {
		d.ClientSecret = ""
	}
	return d
}
