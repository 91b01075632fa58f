package setting

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("setting not found")
	ErrUnknownKey   = errors.New("unknown setting key")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Table: system_settings
type SystemSetting struct {
	ID          uint64    `gorm:"primaryKey;column:id" json:"-"`
	Key         string    `gorm:"size:100;not null;uniqueIndex:ux_system_settings_key" json:"key"`
	Value       string    `gorm:"size:255;not null" json:"value"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	UpdatedBy   *uint64   `json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }

const (
	KeyFeePercent            = "processing_fee_percent"
	KeyFeeFixed              = "processing_fee_fixed"
	KeyFeeMinimum            = "processing_fee_minimum"
	KeyLoanMinAmount         = "loan_min_amount"
	KeyLoanMaxAmount         = "loan_max_amount"
	KeyLoanMinTerm           = "loan_min_term_months"
	KeyLoanMaxTerm           = "loan_max_term_months"
	KeyDefaultInterestRate   = "default_interest_rate"
	KeyRequireIDVerification = "require_id_verification"
	KeyBaseCurrency          = "base_currency"
	KeyWalletBTC             = "crypto_wallet_btc"
	KeyWalletETH             = "crypto_wallet_eth"
	KeyWalletUSDT            = "crypto_wallet_usdt"
	KeyCryptoMinConfirm      = "crypto_min_confirmations"
	KeyCryptoTolerance       = "crypto_amount_tolerance_percent"
	KeyCryptoTTLMinutes      = "crypto_payment_ttl_minutes"
	KeyReferralReward        = "referral_reward_amount"
	KeyFeeReminderHours      = "fee_reminder_hours"
)

type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindInt
	KindBool
	KindCurrency
)

type Definition struct {
	Key         string
	Kind        Kind
	Default     string
	Description string
}

var Definitions = []Definition{
	{KeyFeePercent, KindDecimal, "5", "Processing fee as a percentage of the approved amount"},
	{KeyFeeFixed, KindDecimal, "0", "Flat amount added to the processing fee"},
	{KeyFeeMinimum, KindDecimal, "25", "Lowest processing fee charged"},
	{KeyLoanMinAmount, KindDecimal, "500", "Smallest amount a borrower may request"},
	{KeyLoanMaxAmount, KindDecimal, "50000", "Largest amount a borrower may request"},
	{KeyLoanMinTerm, KindInt, "3", "Shortest term in months"},
	{KeyLoanMaxTerm, KindInt, "60", "Longest term in months"},
	{KeyDefaultInterestRate, KindDecimal, "12.5", "Annual interest rate used when an approval omits one"},
	{KeyRequireIDVerification, KindBool, "true", "Approval requires verified identity documents"},
	{KeyBaseCurrency, KindCurrency, "USD", "Currency loans and fees are denominated in"},
	{KeyWalletBTC, KindString, "", "Receiving wallet for BTC fee payments"},
	{KeyWalletETH, KindString, "", "Receiving wallet for ETH fee payments"},
	{KeyWalletUSDT, KindString, "", "Receiving wallet for USDT fee payments"},
	{KeyCryptoMinConfirm, KindInt, "2", "Confirmations required before a crypto payment counts"},
	{KeyCryptoTolerance, KindDecimal, "1", "Allowed underpayment in percent for crypto payments"},
	{KeyCryptoTTLMinutes, KindInt, "60", "Minutes a crypto quote stays valid"},
	{KeyReferralReward, KindDecimal, "50", "Reward credited when a referred user's loan is disbursed"},
	{KeyFeeReminderHours, KindInt, "24", "Hours between processing fee reminders"},
}

func Lookup(key string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// limits are inclusive bounds for numeric keys. An empty side is open;
// numeric keys without an entry only have to be non-negative, so
// fee_reminder_hours may be 0 to switch reminders off.
var limits = map[string][2]string{
	KeyFeePercent:          {"0", "100"},
	KeyDefaultInterestRate: {"0", "100"},
	KeyCryptoTolerance:     {"0", "50"},
	KeyLoanMinAmount:       {"0.01", ""},
	KeyLoanMaxAmount:       {"0.01", ""},
	KeyLoanMinTerm:         {"1", "600"},
	KeyLoanMaxTerm:         {"1", "600"},
	KeyCryptoMinConfirm:    {"1", ""},
	KeyCryptoTTLMinutes:    {"1", "1440"},
}

// Check validates a raw value against the definition's kind and bounds.
func (d Definition) Check(value string) error {
	switch d.Kind {
	case KindDecimal:
		v, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidValue, d.Key)
		}
		return d.checkRange(v)
	case KindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalidValue, d.Key)
		}
		return d.checkRange(decimal.NewFromInt(int64(n)))
	case KindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, d.Key)
		}
	case KindCurrency:
		if len(value) != 3 {
			return fmt.Errorf("%w: %s must be a 3-letter currency code", ErrInvalidValue, d.Key)
		}
	}
	return nil
}

func (d Definition) checkRange(v decimal.Decimal) error {
	lim, ok := limits[d.Key]
	if !ok {
		lim = [2]string{"0", ""}
	}
	if lim[0] != "" && v.LessThan(decimal.RequireFromString(lim[0])) {
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalidValue, d.Key, lim[0])
	}
	if lim[1] != "" && v.GreaterThan(decimal.RequireFromString(lim[1])) {
		return fmt.Errorf("%w: %s must be at most %s", ErrInvalidValue, d.Key, lim[1])
	}
	return nil
}

// pairs hold keys that bound each other: the first may not exceed the second.
var pairs = [][2]string{
	{KeyLoanMinAmount, KeyLoanMaxAmount},
	{KeyLoanMinTerm, KeyLoanMaxTerm},
}

// Counterpart returns the key that key is ordered against and whether key is
// the lower bound of the pair.
func Counterpart(key string) (other string, lower bool, ok bool) {
	for _, p := range pairs {
		switch key {
		case p[0]:
			return p[1], true, true
		case p[1]:
			return p[0], false, true
		}
	}
	return "", false, false
}
