// Package push delivers notifications to customer devices through an
// external push service and keeps the delivery dedup records in Redis.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPGateway posts notifications to a push service speaking the Expo
// push API shape: a JSON message with to, title, body and data.
type HTTPGateway struct {
	URL         string
	AccessToken string
	Client      *http.Client
}

// NewHTTPGateway returns a gateway for url with a 10s request timeout.
func NewHTTPGateway(url, accessToken string) *HTTPGateway {
	return &HTTPGateway{URL: url, AccessToken: accessToken, Client: &http.Client{Timeout: 10 * time.Second}}
}

type message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type ticket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send delivers one notification.  Transport errors, non-2xx answers and
// tickets with status "error" are all reported as errors.
func (g *HTTPGateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(message{To: token, Title: title, Body: body, Data: data, Sound: "default"})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.AccessToken)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("push gateway: status %d: %s", res.StatusCode, bytes.TrimSpace(raw))
	}

	var out response
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil {
		return nil
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("push gateway: %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	var t ticket
	if json.Unmarshal(out.Data, &t) == nil && t.Status == "error" {
		return fmt.Errorf("push gateway: ticket error: %s", t.Message)
	}
	return nil
}

// LogGateway only logs notifications.  It is used when no push service
// is configured.
type LogGateway struct{}

func (LogGateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	log.Printf("push: (log only) to=%s title=%q body=%q data=%v", token, title, body, data)
	return nil
}
