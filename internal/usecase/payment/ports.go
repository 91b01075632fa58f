package payment

import (
	"context"
	"errors"

	domain "lending-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// ErrTxNotFound is returned by an Explorer that does not know the hash yet.
var ErrTxNotFound = errors.New("transaction not found on chain")

type CardIntentRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Reference string
	PaymentID string
}

type CardIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

const (
	CardEventSucceeded = "payment_intent.succeeded"
	CardEventFailed    = "payment_intent.payment_failed"
)

type CardEvent struct {
	ID       string
	Type     string
	IntentID string
	// set on failures
	FailureMessage string
}

// CardGateway creates payment intents and authenticates webhook deliveries.
type CardGateway interface {
	CreateIntent(ctx context.Context, req CardIntentRequest) (*CardIntent, error)
	ParseWebhook(payload []byte, signature string) (*CardEvent, error)
}

// RateProvider quotes the USD price of one coin.
type RateProvider interface {
	USDRate(ctx context.Context, coin domain.Coin) (decimal.Decimal, error)
}

// FXProvider converts fiat amounts between ISO currencies.
type FXProvider interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// ChainTx is what an explorer reports about a transfer to address.
type ChainTx struct {
	Hash          string
	To            string
	Amount        decimal.Decimal // coin units, already scaled by the coin's decimals
	Confirmations int
}

type Explorer interface {
	Transaction(ctx context.Context, coin domain.Coin, hash, address string) (*ChainTx, error)
}
