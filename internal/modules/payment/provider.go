package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how stale a webhook timestamp may be before
// the event is rejected outright.
const signatureTolerance = 5 * time.Minute

// CheckoutClient talks to the hosted checkout collaborator. The provider
// is opaque: we create a session, hand the customer the redirect URL, and
// learn the outcome from signed webhook callbacks.
type CheckoutClient struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	successURL    string
	cancelURL     string
	httpc         *http.Client
	now           func() time.Time
}

func NewCheckoutClient(baseURL, apiKey, webhookSecret, successURL, cancelURL string) *CheckoutClient {
	return &CheckoutClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		httpc:         &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

type SessionParams struct {
	AmountMinor   int64
	Currency      string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type createSessionRequest struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CreateSession creates a hosted checkout session and returns its
// redirect URL.
func (c *CheckoutClient) CreateSession(ctx context.Context, p SessionParams) (*CheckoutSession, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("checkout credentials are not configured")
	}

	body, err := json.Marshal(createSessionRequest{
		Amount:        p.AmountMinor,
		Currency:      p.Currency,
		Description:   p.Description,
		CustomerEmail: p.CustomerEmail,
		SuccessURL:    c.successURL,
		CancelURL:     c.cancelURL,
		Metadata:      p.Metadata,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout provider returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("checkout response decode failed: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("checkout provider returned no redirect url")
	}
	return &session, nil
}

// VerifySignature checks the webhook signature header against the shared
// secret. Header format: "t=<unix>,v1=<hex hmac-sha256 of t.payload>".
// Any event that cannot be verified is rejected without processing.
func (c *CheckoutClient) VerifySignature(payload []byte, header string) error {
	if c.webhookSecret == "" {
		return ErrInvalidSignature
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := c.now().Sub(time.Unix(unix, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload produces a signature header for payload at the client's
// current time. Used by tests and the local provider stub.
func (c *CheckoutClient) SignPayload(payload []byte) string {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
