// Package crypto quotes coin prices and looks up on-chain transfers.
package crypto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "lending-backend/internal/domain/payment"
	"lending-backend/internal/infrastructure/cache"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var coinIDs = map[domain.Coin]string{
	domain.CoinBTC:  "bitcoin",
	domain.CoinETH:  "ethereum",
	domain.CoinUSDT: "tether",
}

type Cache interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Rates reads USD prices from a CoinGecko-compatible /simple/price endpoint.
type Rates struct {
	baseURL string
	http    *http.Client
	cache   Cache
	ttl     time.Duration
	log     *logrus.Logger
}

// NewRates: cache may be nil to always hit the provider.
func NewRates(baseURL string, c Cache, ttl time.Duration, log *logrus.Logger) *Rates {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Rates{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   c,
		ttl:     ttl,
		log:     log,
	}
}

func (r *Rates) USDRate(ctx context.Context, coin domain.Coin) (decimal.Decimal, error) {
	cid, ok := coinIDs[coin]
	if !ok {
		return decimal.Zero, domain.ErrUnsupportedCurrency
	}
	key := "usd:" + string(coin)
	if r.cache != nil {
		var cached string
		err := r.cache.Get(ctx, key, &cached)
		if err == nil {
			if d, err := decimal.NewFromString(cached); err == nil {
				return d, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			r.log.WithError(err).Warn("rate cache read failed")
		}
	}

	q := url.Values{"ids": {cid}, "vs_currencies": {"usd"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request: status %d", resp.StatusCode)
	}

	price := gjson.GetBytes(body, cid+".usd")
	if !price.Exists() {
		return decimal.Zero, fmt.Errorf("no usd price for %s", cid)
	}
	rate, err := decimal.NewFromString(price.Raw)
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("bad usd price for %s: %q", cid, price.Raw)
	}
	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.Set(ctx, key, rate.String(), r.ttl); err != nil {
			r.log.WithError(err).Warn("rate cache write failed")
		}
	}
	return rate, nil
}
