package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/apperrors"
)

// Payment statuses reported by the gateway.
const (
	StatusPaid      = "paid"
	StatusReady     = "ready"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// PaymentInfo is the gateway's authoritative view of a payment.
type PaymentInfo struct {
	TransactionID string `json:"transaction_id"`
	MerchantUID   string `json:"merchant_uid"`
	Status        string `json:"status"`
	Amount        int    `json:"amount"`
	CancelAmount  int    `json:"cancel_amount"`
	CardName      string `json:"card_name"`
	PGProvider    string `json:"pg_provider"`
	ReceiptURL    string `json:"receipt_url"`
}

// Client talks to the external payment provider over HTTPS. It holds no
// mutable state; a fresh access token is obtained per outbound call.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a gateway client for the given provider endpoint.
func NewClient(baseURL, apiKey, apiSecret string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      httpClient,
		logger:    logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// GetAccessToken obtains a bearer credential from the provider.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"api_key":    c.apiKey,
		"api_secret": c.apiSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Gateway("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", apperrors.Gateway("gateway returned empty access token", nil)
	}
	return tok.AccessToken, nil
}

// GetPaymentInfo returns gateway truth for a transaction id.
func (c *Client) GetPaymentInfo(ctx context.Context, transactionID string) (*PaymentInfo, error) {
	return c.fetchPayment(ctx, "/payments/"+transactionID)
}

// FindPayment returns gateway truth resolved by merchant UID. Used by the
// polling fallback when the client never received a synchronous answer.
func (c *Client) FindPayment(ctx context.Context, merchantUID string) (*PaymentInfo, error) {
	return c.fetchPayment(ctx, "/payments/find/"+merchantUID)
}

func (c *Client) fetchPayment(ctx context.Context, path string) (*PaymentInfo, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperrors.Gateway("failed to build payment lookup request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var info PaymentInfo
	if err := c.do(req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type cancelRequest struct {
	TransactionID string `json:"transaction_id"`
	MerchantUID   string `json:"merchant_uid"`
	Reason        string `json:"reason"`
}

// CancelPayment issues a compensating cancellation at the provider and
// returns the provider-reported state including the cancelled amount.
func (c *Client) CancelPayment(ctx context.Context, transactionID, merchantUID, reason string) (*PaymentInfo, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(cancelRequest{
		TransactionID: transactionID,
		MerchantUID:   merchantUID,
		Reason:        reason,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/cancel", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Gateway("failed to build cancel request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var info PaymentInfo
	if err := c.do(req, &info); err != nil {
		return nil, err
	}
	c.logger.Info("Gateway cancellation issued",
		zap.String("transaction_id", transactionID),
		zap.String("merchant_uid", merchantUID),
		zap.Int("cancel_amount", info.CancelAmount),
	)
	return &info, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Gateway("gateway request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.Gateway(
			fmt.Sprintf("gateway returned %d for %s %s", resp.StatusCode, req.Method, req.URL.Path),
			fmt.Errorf("%s", bytes.TrimSpace(snippet)),
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Gateway("failed to decode gateway response", err)
	}
	return nil
}
