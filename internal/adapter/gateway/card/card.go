// Package card talks to a Stripe-compatible payment intents API.
package card

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "lending-backend/internal/domain/payment"
	paymentUC "lending-backend/internal/usecase/payment"

	"github.com/tidwall/gjson"
)

const (
	// SignatureHeader carries `t=<unix>,v1=<hex hmac>` on webhook deliveries.
	SignatureHeader = "Stripe-Signature"
	// SignatureTolerance bounds the age of a signed webhook delivery.
	SignatureTolerance = 5 * time.Minute
)

type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	now     func() time.Time
}

func New(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     apiKey,
		secret:  webhookSecret,
		http:    &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}
}

// CreateIntent amounts are sent in minor units. The payment reference doubles
// as the idempotency key so retries never create a second intent.
func (c *Client) CreateIntent(ctx context.Context, in paymentUC.CardIntentRequest) (*paymentUC.CardIntent, error) {
	form := url.Values{}
	form.Set("amount", in.Amount.Shift(2).Round(0).String())
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("metadata[payment_id]", in.PaymentID)
	form.Set("metadata[reference]", in.Reference)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", in.Reference)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create intent: status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error.message").String())
	}

	res := gjson.ParseBytes(body)
	out := &paymentUC.CardIntent{
		ID:           res.Get("id").String(),
		ClientSecret: res.Get("client_secret").String(),
		Status:       res.Get("status").String(),
	}
	if out.ID == "" {
		return nil, fmt.Errorf("create intent: response without id")
	}
	return out, nil
}

// ParseWebhook checks a "t=<unix>,v1=<hex>" signature over "<t>.<payload>"
// and extracts the intent the event is about.
func (c *Client) ParseWebhook(payload []byte, signature string) (*paymentUC.CardEvent, error) {
	if err := c.verify(payload, signature); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: malformed payload", domain.ErrBadSignature)
	}
	ev := gjson.ParseBytes(payload)
	return &paymentUC.CardEvent{
		ID:             ev.Get("id").String(),
		Type:           ev.Get("type").String(),
		IntentID:       ev.Get("data.object.id").String(),
		FailureMessage: ev.Get("data.object.last_payment_error.message").String(),
	}, nil
}

func (c *Client) verify(payload []byte, header string) error {
	var (
		ts   int64
		sigs []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, _ = strconv.ParseInt(v, 10, 64)
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return domain.ErrBadSignature
	}
	age := c.now().Sub(time.Unix(ts, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrBadSignature)
	}

	want := Sign(c.secret, ts, payload)
	for _, s := range sigs {
		if hmac.Equal([]byte(s), []byte(want)) {
			return nil
		}
	}
	return domain.ErrBadSignature
}

// Sign returns the hex v1 signature for payload sent at ts.
func Sign(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
