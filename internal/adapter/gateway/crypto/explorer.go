package crypto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "lending-backend/internal/domain/payment"
	paymentUC "lending-backend/internal/usecase/payment"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Chain is where a coin's transactions are looked up and how its base units
// scale.
type Chain struct {
	Path     string
	Decimals int32
}

var DefaultChains = map[domain.Coin]Chain{
	domain.CoinBTC:  {Path: "btc/main", Decimals: 8},
	domain.CoinETH:  {Path: "eth/main", Decimals: 18},
	domain.CoinUSDT: {Path: "usdt/main", Decimals: 6},
}

// Explorer reads transactions from a BlockCypher-compatible API.
type Explorer struct {
	baseURL string
	token   string
	chains  map[domain.Coin]Chain
	http    *http.Client
}

// NewExplorer: nil chains uses DefaultChains.
func NewExplorer(baseURL, token string, chains map[domain.Coin]Chain) *Explorer {
	if chains == nil {
		chains = DefaultChains
	}
	return &Explorer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		chains:  chains,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Transaction sums the outputs of hash paid to address. To is left as the
// first output address when nothing was paid to address.
func (e *Explorer) Transaction(ctx context.Context, coin domain.Coin, hash, address string) (*paymentUC.ChainTx, error) {
	chain, ok := e.chains[coin]
	if !ok {
		return nil, domain.ErrUnsupportedCurrency
	}
	u := e.baseURL + "/" + chain.Path + "/txs/" + url.PathEscape(hash)
	if e.token != "" {
		u += "?" + url.Values{"token": {e.token}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, paymentUC.ErrTxNotFound
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer request: status %d", resp.StatusCode)
	}

	tx := gjson.ParseBytes(body)
	out := &paymentUC.ChainTx{
		Hash:          tx.Get("hash").String(),
		Confirmations: int(tx.Get("confirmations").Int()),
		Amount:        decimal.Zero,
	}
	want := normalize(address)
	for _, o := range tx.Get("outputs").Array() {
		addrs := o.Get("addresses").Array()
		if out.To == "" && len(addrs) > 0 {
			out.To = addrs[0].String()
		}
		for _, a := range addrs {
			if normalize(a.String()) != want {
				continue
			}
			v, err := decimal.NewFromString(o.Get("value").Raw)
			if err != nil {
				return nil, fmt.Errorf("output value %q: %w", o.Get("value").Raw, err)
			}
			out.Amount = out.Amount.Add(v)
			out.To = address
		}
	}
	out.Amount = out.Amount.Shift(-chain.Decimals)
	return out, nil
}

// normalize drops the 0x prefix the explorer omits on account chains.
func normalize(addr string) string {
	return strings.TrimPrefix(strings.ToLower(addr), "0x")
}
