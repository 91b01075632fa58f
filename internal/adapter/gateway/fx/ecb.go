// Package fx converts fiat amounts using the ECB daily reference rates.
package fx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ECB rates are quoted per euro and refreshed once a day.
type ECB struct {
	url  string
	http *http.Client
	ttl  time.Duration
	log  *logrus.Logger
	now  func() time.Time

	mu      sync.Mutex
	rates   map[string]decimal.Decimal
	fetched time.Time
}

func NewECB(url string, log *logrus.Logger) *ECB {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ECB{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		ttl:  6 * time.Hour,
		log:  log,
		now:  time.Now,
	}
}

func (e *ECB) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	rates, err := e.table(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fr, ok := rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("no reference rate for %s", from)
	}
	tr, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no reference rate for %s", to)
	}
	return amount.Div(fr).Mul(tr).Round(2), nil
}

func (e *ECB) table(ctx context.Context) (map[string]decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rates != nil && e.now().Sub(e.fetched) < e.ttl {
		return e.rates, nil
	}
	rates, err := e.fetch(ctx)
	if err != nil {
		if e.rates != nil {
			e.log.WithError(err).Warn("fx refresh failed, using previous rates")
			return e.rates, nil
		}
		return nil, err
	}
	e.rates, e.fetched = rates, e.now()
	return rates, nil
}

func (e *ECB) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fx request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fx request: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parse(body)
}

func parse(body []byte) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse fx xml: %w", err)
	}
	out := map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1)}
	for _, c := range doc.FindElements("//Cube[@currency]") {
		rate, err := decimal.NewFromString(c.SelectAttrValue("rate", ""))
		if err != nil || !rate.IsPositive() {
			continue
		}
		out[strings.ToUpper(c.SelectAttrValue("currency", ""))] = rate
	}
	if len(out) == 1 {
		return nil, fmt.Errorf("fx xml has no rates")
	}
	return out, nil
}
