// Package azampay is the HTTP client for the AzamPay checkout API.
package azampay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/cenkalti/backoff/v4"
)

const (
	mnoCheckoutPath  = "/azampay/mno/checkout"
	bankCheckoutPath = "/azampay/bank/checkout"
	statusPath       = "/azampay/mno/checkout/status"
)

// Client implements payment.Payment against AzamPay.
type Client struct {
	cfg        *config.Gateway
	http       *http.Client
	tokens     *TokenSource
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// New creates a Client with its own http.Client bounded by cfg.Timeout.
func New(cfg *config.Gateway, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client using httpClient for every request.
func NewWithHTTPClient(cfg *config.Gateway, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   httpClient,
		tokens: NewTokenSource(cfg, httpClient, logger),
		logger: logger.With("provider", "azampay", "environment", cfg.Environment),
	}
	c.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		if cfg.RetryBackoff > 0 {
			b.InitialInterval = cfg.RetryBackoff
			b.MaxInterval = 8 * cfg.RetryBackoff
		}
		b.MaxElapsedTime = 0
		return b
	}
	return c
}

// Tokens exposes the client's token cache.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

// InitiatePayment starts a mobile-money or bank checkout. Network and 5xx
// failures are retried; a timeout is returned as payment.ErrGatewayTimeout
// without retrying since the provider may still complete the payment.
func (c *Client) InitiatePayment(
	ctx context.Context,
	params *payment.InitiatePaymentParams,
) (*payment.InitiatePaymentResponse, error) {
	provider, ok := payment.ResolveProvider(params.Kind, params.Provider)
	if !ok {
		return nil, domain.NewValidationError("provider",
			fmt.Sprintf("unsupported %s provider %q", params.Kind, params.Provider))
	}

	var (
		path string
		body any
	)
	switch params.Kind {
	case payment.KindMobileMoney:
		if !params.Amount.Equal(params.Amount.Truncate(0)) {
			return nil, domain.NewValidationError("amount", "mobile money amounts must be whole units")
		}
		path = mnoCheckoutPath
		body = mnoCheckoutRequest{
			AccountNumber:        params.AccountNumber,
			Amount:               params.Amount.String(),
			Currency:             params.Currency,
			ExternalID:           params.Reference,
			Provider:             provider,
			AdditionalProperties: params.Metadata,
		}
	case payment.KindBank:
		merchantName := params.MerchantName
		if merchantName == "" {
			merchantName = c.cfg.AppName
		}
		path = bankCheckoutPath
		body = bankCheckoutRequest{
			Amount:                params.Amount.String(),
			CurrencyCode:          params.Currency,
			MerchantAccountNumber: params.MerchantAccountNumber,
			MerchantMobileNumber:  params.MerchantMobileNumber,
			MerchantName:          merchantName,
			OTP:                   params.OTP,
			Provider:              provider,
			ReferenceID:           params.Reference,
			AdditionalProperties:  params.Metadata,
		}
	default:
		return nil, domain.NewValidationError("payment_method", fmt.Sprintf("unsupported kind %q", params.Kind))
	}

	log := c.logger.With("reference", params.Reference, "kind", params.Kind, "gateway_provider", provider)
	log.Info("📤 Initiating gateway checkout", "amount", params.Amount.String(), "currency", params.Currency)

	raw, err := c.call(ctx, path, body, c.cfg.MaxRetries)
	if err != nil {
		log.Error("❌ Gateway checkout failed", "error", err)
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayRejected, StatusCode: http.StatusOK, Message: "invalid response from payment gateway"}
	}
	if !resp.Success {
		msg := resp.errorMessage()
		log.Warn("⚠️ Gateway rejected checkout", "message", msg, "message_code", resp.MessageCode)
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayRejected, StatusCode: http.StatusOK, Message: msg}
	}

	log.Info("✅ Gateway checkout accepted", "transaction_id", resp.TransactionID)
	return &payment.InitiatePaymentResponse{
		Status:    payment.PaymentPending,
		PaymentID: resp.TransactionID,
		Message:   resp.Message,
	}, nil
}

// GetPaymentStatus polls the gateway once for the current outcome.
func (c *Client) GetPaymentStatus(
	ctx context.Context,
	params *payment.GetPaymentStatusParams,
) (*payment.PaymentStatusResponse, error) {
	id := params.PaymentID
	if id == "" {
		id = params.Reference
	}
	if id == "" {
		return nil, domain.NewValidationError("transaction_id", "payment id or reference is required")
	}

	raw, err := c.call(ctx, statusPath, statusRequest{TransactionID: id}, 0)
	if err != nil {
		c.logger.Warn("⚠️ Gateway status check failed", "transaction_id", id, "error", err)
		return nil, err
	}

	var resp statusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayRejected, StatusCode: http.StatusOK, Message: "invalid response from status service"}
	}

	rawStatus := resp.rawStatus()
	paymentID := resp.transactionID()
	if paymentID == "" {
		paymentID = params.PaymentID
	}
	c.logger.Debug("gateway status", "transaction_id", id, "raw_status", rawStatus)
	return &payment.PaymentStatusResponse{
		Status:    payment.ParseStatus(rawStatus),
		RawStatus: rawStatus,
		PaymentID: paymentID,
		Message:   resp.Message,
	}, nil
}

// call POSTs body to path with bounded retries on transient failures and
// returns the raw 2xx body.
func (c *Client) call(ctx context.Context, path string, body any, retries uint64) ([]byte, error) {
	url := strings.TrimRight(c.cfg.CheckoutURL, "/") + path

	var raw []byte
	operation := func() error {
		out, err := c.send(ctx, url, body)
		if err == nil {
			raw = out
			return nil
		}
		if isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), retries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("🔁 Retrying gateway request", "path", path, "error", err, "wait", wait)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayTimeout, err)
	case isTransient(err):
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayUnreachable, Message: err.Error()}
	default:
		return nil, err
	}
}

// send performs one authenticated request. A 401 invalidates the token and
// re-attempts once with a fresh one.
func (c *Client) send(ctx context.Context, url string, body any) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	status, raw, err := doJSON(ctx, c.http, url, token, c.cfg.ApiKey, body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.logger.Warn("🔑 Gateway rejected token, refreshing")
		c.tokens.Invalidate(token)
		if token, err = c.tokens.Token(ctx); err != nil {
			return nil, err
		}
		if status, raw, err = doJSON(ctx, c.http, url, token, c.cfg.ApiKey, body); err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, &payment.GatewayError{Kind: payment.ErrGatewayAuth, StatusCode: status, Message: "token rejected after refresh"}
		}
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, transient(&payment.GatewayError{Kind: payment.ErrGatewayUnreachable, StatusCode: status, Message: http.StatusText(status)})
	case status >= http.StatusBadRequest:
		var resp apiResponse
		_ = json.Unmarshal(raw, &resp)
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayRejected, StatusCode: status, Message: resp.errorMessage()}
	}
	return raw, nil
}

// doJSON POSTs body as JSON and returns the status code and raw body.
// Transport failures are classified as timeout or transient.
func doJSON(
	ctx context.Context,
	client *http.Client,
	url, token, apiKey string,
	body any,
) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return 0, nil, fmt.Errorf("%w: %v", payment.ErrGatewayTimeout, err)
		}
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, transient(fmt.Errorf("%w: %v", payment.ErrGatewayUnreachable, err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, transient(fmt.Errorf("%w: read body: %v", payment.ErrGatewayUnreachable, err))
	}
	return resp.StatusCode, raw, nil
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error { return &transientError{err: err} }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

var _ payment.Payment = (*Client)(nil)
