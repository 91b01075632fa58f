package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("payment not found")
	ErrAlreadyFinal        = errors.New("payment already settled")
	ErrTxHashUsed          = errors.New("transaction hash already submitted")
	ErrUnsupportedCurrency = errors.New("unsupported crypto currency")
	ErrWalletNotConfigured = errors.New("no wallet configured for currency")
	ErrExpired             = errors.New("payment quote expired")
	ErrWrongMethod         = errors.New("operation not valid for this payment method")
	ErrBadSignature        = errors.New("invalid webhook signature")
	ErrAlreadyPaid         = errors.New("processing fee already paid")
)

type Method string

const (
	MethodCard   Method = "card"
	MethodCrypto Method = "crypto"
)

const ProviderCardGateway = "card_gateway"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusRefunded   Status = "refunded"
)

// Final statuses are never changed by gateway callbacks.
func (s Status) Final() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

// Coin is a supported crypto currency code.
type Coin string

const (
	CoinBTC  Coin = "btc"
	CoinETH  Coin = "eth"
	CoinUSDT Coin = "usdt"
)

func (c Coin) Valid() bool { return c == CoinBTC || c == CoinETH || c == CoinUSDT }

type Payment struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID         string          `gorm:"size:32;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	Reference         string          `gorm:"size:36;uniqueIndex:ux_payments_reference" json:"reference"`
	LoanApplicationID uint64          `gorm:"not null;index:idx_payments_loan" json:"-"`
	UserID            uint64          `gorm:"not null;index:idx_payments_user" json:"-"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Method            Method          `gorm:"size:16;not null" json:"method"`
	Provider          string          `gorm:"size:32;not null" json:"provider"`
	ProviderRef       string          `gorm:"size:128;index:idx_payments_provider_ref" json:"provider_ref,omitempty"`
	ClientSecret      string          `gorm:"size:255" json:"client_secret,omitempty"`
	CryptoCurrency    Coin            `gorm:"size:8" json:"crypto_currency,omitempty"`
	CryptoAmount      decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"crypto_amount"`
	CryptoRate        decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"crypto_rate"`
	WalletAddress     string          `gorm:"size:128" json:"wallet_address,omitempty"`
	TxHash            *string         `gorm:"size:128;uniqueIndex:ux_payments_tx_hash" json:"tx_hash,omitempty"`
	Confirmations     int             `gorm:"not null;default:0" json:"confirmations"`
	Status            Status          `gorm:"size:16;not null;default:'pending';index:idx_payments_status" json:"status"`
	FailureReason     string          `gorm:"size:255" json:"failure_reason,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Payment) TableName() string { return "payments" }

// NormalizeTxHash is the stored form of a transaction hash: hex is case
// insensitive and account chains may or may not carry a 0x prefix.
func NormalizeTxHash(hash string) string {
	h := strings.ToLower(strings.TrimSpace(hash))
	return strings.TrimPrefix(h, "0x")
}

func (p *Payment) Succeed(at time.Time) {
	p.Status = StatusSucceeded
	p.PaidAt = &at
	p.FailureReason = ""
}

func (p *Payment) Fail(status Status, reason string) {
	p.Status = status
	p.FailureReason = reason
}
