package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// FeeSchedule is the processing fee configuration read from system settings.
type FeeSchedule struct {
	Percent decimal.Decimal
	Fixed   decimal.Decimal
	Minimum decimal.Decimal
}

// ProcessingFee = round2(max(amount*percent/100 + fixed, minimum)).
func (s FeeSchedule) ProcessingFee(amount decimal.Decimal) decimal.Decimal {
	if amount.Sign() <= 0 {
		return decimal.Zero
	}
	fee := amount.Mul(s.Percent).Div(hundred).Add(s.Fixed)
	if fee.LessThan(s.Minimum) {
		fee = s.Minimum
	}
	return Round2(fee)
}

// CryptoAmount converts a fiat amount to coin units at rate (fiat per coin),
// rounded up to 8 places so the quote never undercharges.
func CryptoAmount(fiat, rate decimal.Decimal) decimal.Decimal {
	if rate.Sign() <= 0 {
		return decimal.Zero
	}
	return fiat.Div(rate).RoundCeil(8)
}

// WithinTolerance reports whether got >= want*(1 - tolerancePercent/100).
// Nothing received never counts, whatever the tolerance.
func WithinTolerance(got, want, tolerancePercent decimal.Decimal) bool {
	if got.Sign() <= 0 {
		return false
	}
	floor := want.Mul(hundred.Sub(tolerancePercent)).Div(hundred)
	return got.GreaterThanOrEqual(floor)
}
