package payment

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	domain "lending-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type fakeCard struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCard) CreateIntent(_ context.Context, req CardIntentRequest) (*CardIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	n := strconv.Itoa(f.calls)
	return &CardIntent{ID: "pi_" + n, ClientSecret: "pi_" + n + "_secret", Status: "requires_payment_method"}, nil
}

// ParseWebhook accepts {"id","type","intent","message"} signed with "good".
func (f *fakeCard) ParseWebhook(payload []byte, signature string) (*CardEvent, error) {
	if signature != "good" {
		return nil, domain.ErrBadSignature
	}
	var raw struct {
		ID, Type, Intent, Message string
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	return &CardEvent{ID: raw.ID, Type: raw.Type, IntentID: raw.Intent, FailureMessage: raw.Message}, nil
}

type fakeRates map[domain.Coin]decimal.Decimal

func (f fakeRates) USDRate(_ context.Context, coin domain.Coin) (decimal.Decimal, error) {
	return f[coin], nil
}

type fakeFX struct{ rate decimal.Decimal }

func (f fakeFX) Convert(_ context.Context, amount decimal.Decimal, _, _ string) (decimal.Decimal, error) {
	return amount.Mul(f.rate), nil
}

type fakeExplorer struct {
	mu  sync.Mutex
	tx  *ChainTx
	err error
}

func (f *fakeExplorer) set(tx *ChainTx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tx, f.err = tx, nil
}

func (f *fakeExplorer) Transaction(_ context.Context, _ domain.Coin, hash, _ string) (*ChainTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.tx == nil {
		return nil, ErrTxNotFound
	}
	out := *f.tx
	if out.Hash == "" {
		out.Hash = hash
	}
	return &out, nil
}
