package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// FundingDispatcherConfig contains configuration for the funding charge adapter
type FundingDispatcherConfig struct {
	BaseURL    string // billing provider API base URL
	SecretPath string // secret manager path holding the API key
	Timeout    time.Duration
}

// DefaultFundingDispatcherConfig returns default configuration
func DefaultFundingDispatcherConfig(baseURL string) *FundingDispatcherConfig {
	return &FundingDispatcherConfig{
		BaseURL:    baseURL,
		SecretPath: "settlement-service/billing/api-key",
		Timeout:    30 * time.Second,
	}
}

// fundingDispatcherAdapter implements ports.FundingDispatcher against the
// billing provider's charge API. The provider deduplicates on the
// Idempotency-Key header, so a resubmitted attempt can never double-charge.
type fundingDispatcherAdapter struct {
	config     *FundingDispatcherConfig
	httpClient ports.HTTPClient
	secrets    ports.SecretManager
	logger     ports.Logger
}

// NewFundingDispatcher creates a new funding charge dispatcher
func NewFundingDispatcher(
	config *FundingDispatcherConfig,
	httpClient ports.HTTPClient,
	secrets ports.SecretManager,
	logger ports.Logger,
) ports.FundingDispatcher {
	return &fundingDispatcherAdapter{
		config:     config,
		httpClient: httpClient,
		secrets:    secrets,
		logger:     logger,
	}
}

type fundingChargeRequest struct {
	InvoiceID   string `json:"invoice_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Submit asynchronously initiates one funding charge attempt. The outcome
// arrives later via the provider's webhook; a nil return only means the
// charge was accepted for processing.
func (a *fundingDispatcherAdapter) Submit(ctx context.Context, req ports.FundingRequest) error {
	secret, err := a.secrets.GetSecret(ctx, a.config.SecretPath)
	if err != nil {
		return fmt.Errorf("load billing credentials: %w", err)
	}

	payload, err := json.Marshal(fundingChargeRequest{
		InvoiceID:   req.InvoiceID,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		return fmt.Errorf("marshal charge request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/charges", a.config.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret.Value)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	startTime := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.logger.Error("funding charge request failed",
			ports.String("invoice_id", req.InvoiceID),
			ports.Err(err),
		)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	a.logger.Info("funding charge submitted",
		ports.String("invoice_id", req.InvoiceID),
		ports.String("idempotency_key", req.IdempotencyKey),
		ports.Int("status_code", resp.StatusCode),
		ports.String("elapsed", time.Since(startTime).String()),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("billing provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
