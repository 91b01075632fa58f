// Package sms sends text messages through a JSON HTTP provider.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Client struct {
	baseURL string
	key     string
	sender  string
	http    *http.Client
}

func New(baseURL, apiKey, sender string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     apiKey,
		sender:  sender,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{"from": c.sender, "to": to, "text": body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}
	res := gjson.ParseBytes(raw)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms request: status %d: %s", resp.StatusCode, res.Get("error.message").String())
	}
	// some providers answer 200 with a per-message status
	if st := res.Get("messages.0.status").String(); st == "failed" || st == "rejected" {
		return fmt.Errorf("sms rejected: %s", res.Get("messages.0.error").String())
	}
	return nil
}
