// Package rails contains HTTP adapters for the external payout rail
// providers: bank-transfer account capability, stablecoin recipient
// capability, and funding charge dispatch.
package rails

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// BankGatewayConfig contains configuration for the bank-transfer rail adapter
type BankGatewayConfig struct {
	BaseURL    string // e.g., "https://api.bankrail.example.com"
	SecretPath string // secret manager path holding the API key
	Timeout    time.Duration
}

// DefaultBankGatewayConfig returns default configuration
func DefaultBankGatewayConfig(baseURL string) *BankGatewayConfig {
	return &BankGatewayConfig{
		BaseURL:    baseURL,
		SecretPath: "settlement-service/rails/bank/api-key",
		Timeout:    30 * time.Second,
	}
}

// bankGatewayAdapter implements ports.BankRailGateway against the
// bank-transfer processor's connected-accounts API
type bankGatewayAdapter struct {
	config     *BankGatewayConfig
	httpClient ports.HTTPClient
	secrets    ports.SecretManager
	logger     ports.Logger
}

// NewBankGateway creates a new bank-transfer rail adapter
func NewBankGateway(
	config *BankGatewayConfig,
	httpClient ports.HTTPClient,
	secrets ports.SecretManager,
	logger ports.Logger,
) ports.BankRailGateway {
	return &bankGatewayAdapter{
		config:     config,
		httpClient: httpClient,
		secrets:    secrets,
		logger:     logger,
	}
}

type bankAccountResponse struct {
	ID           string `json:"id"`
	Capabilities struct {
		Transfers string `json:"transfers"`
	} `json:"capabilities"`
	PayoutsEnabled bool `json:"payouts_enabled"`
}

// GetAccountStatus queries the processor for the account's live transfer
// capability. Errors propagate; an unreachable processor must never read as
// an inactive rail.
func (a *bankGatewayAdapter) GetAccountStatus(ctx context.Context, accountID string) (*ports.BankAccountStatus, error) {
	secret, err := a.secrets.GetSecret(ctx, a.config.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("load bank rail credentials: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/accounts/%s", a.config.BaseURL, accountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret.Value)

	startTime := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.logger.Error("bank rail account lookup failed",
			ports.String("account_id", accountID),
			ports.Err(err),
		)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	a.logger.Debug("bank rail account lookup",
		ports.String("account_id", accountID),
		ports.Int("status_code", resp.StatusCode),
		ports.String("elapsed", time.Since(startTime).String()),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bank rail returned status %d: %s", resp.StatusCode, string(body))
	}

	var account bankAccountResponse
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}

	return &ports.BankAccountStatus{
		TransferCapability: account.Capabilities.Transfers,
		PayoutsEnabled:     account.PayoutsEnabled,
	}, nil
}
