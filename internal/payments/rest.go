package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RestGateway talks to a card processor over a JSON HTTP API authenticated
// with a secret key.
type RestGateway struct {
	SecretKey  string
	BaseURL    string
	httpClient *http.Client
}

func NewRestGateway(secret, baseURL string, timeout time.Duration) *RestGateway {
	return &RestGateway{
		SecretKey:  secret,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *RestGateway) Name() string { return "rest" }

type restResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (g *RestGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	payload := map[string]any{
		"amount":       req.AmountCents,
		"currency":     req.Currency,
		"description":  req.Description,
		"customer_ref": req.CustomerRef,
	}

	res, raw, err := g.post(ctx, "/charges", req.IdempotencyKey, payload)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charge: %w", err)
	}

	if !isSettled(res.Status) {
		return ChargeResult{}, fmt.Errorf("charge status %q: %w", res.Status, ErrDeclined)
	}

	return ChargeResult{TransactionID: res.ID, Status: res.Status, Raw: raw}, nil
}

func (g *RestGateway) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	payload := map[string]any{
		"charge_id": req.TransactionID,
		"amount":    req.AmountCents,
		"reason":    req.Reason,
	}

	res, raw, err := g.post(ctx, "/refunds", req.IdempotencyKey, payload)
	if err != nil {
		return RefundResult{}, fmt.Errorf("refund: %w", err)
	}

	if !isSettled(res.Status) && !strings.EqualFold(res.Status, "pending") {
		return RefundResult{}, fmt.Errorf("refund status %q: %w", res.Status, ErrDeclined)
	}

	return RefundResult{RefundID: res.ID, Status: res.Status, Raw: raw}, nil
}

func (g *RestGateway) post(ctx context.Context, path, idemKey string, payload any) (restResponse, map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return restResponse{}, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return restResponse{}, nil, err
	}
	httpReq.Header.Set("Authorization", "key "+g.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		httpReq.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return restResponse{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	rawBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return restResponse{}, nil, fmt.Errorf("%w: http=%d body=%s", ErrUnavailable, resp.StatusCode, string(rawBody))
	case resp.StatusCode == http.StatusPaymentRequired,
		resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return restResponse{}, nil, fmt.Errorf("%w: http=%d body=%s", ErrDeclined, resp.StatusCode, string(rawBody))
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		// return raw error for logging/support
		return restResponse{}, nil, fmt.Errorf("unexpected response: http=%d body=%s", resp.StatusCode, string(rawBody))
	}

	var res restResponse
	if err := json.Unmarshal(rawBody, &res); err != nil {
		return restResponse{}, nil, fmt.Errorf("decode: %w body=%s", err, string(rawBody))
	}

	raw := map[string]any{
		"http_status": resp.StatusCode,
		"body":        json.RawMessage(rawBody),
	}
	return res, raw, nil
}

func isSettled(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded", "completed", "paid", "refunded":
		return true
	}
	return false
}
