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

// StablecoinGatewayConfig contains configuration for the stablecoin rail adapter
type StablecoinGatewayConfig struct {
	BaseURL    string // e.g., "https://api.stablerail.example.com"
	SecretPath string // secret manager path holding the API key
	Timeout    time.Duration
}

// DefaultStablecoinGatewayConfig returns default configuration
func DefaultStablecoinGatewayConfig(baseURL string) *StablecoinGatewayConfig {
	return &StablecoinGatewayConfig{
		BaseURL:    baseURL,
		SecretPath: "settlement-service/rails/stablecoin/api-key",
		Timeout:    30 * time.Second,
	}
}

// stablecoinGatewayAdapter implements ports.StablecoinRailGateway against the
// stablecoin processor's recipients API
type stablecoinGatewayAdapter struct {
	config     *StablecoinGatewayConfig
	httpClient ports.HTTPClient
	secrets    ports.SecretManager
	logger     ports.Logger
}

// NewStablecoinGateway creates a new stablecoin rail adapter
func NewStablecoinGateway(
	config *StablecoinGatewayConfig,
	httpClient ports.HTTPClient,
	secrets ports.SecretManager,
	logger ports.Logger,
) ports.StablecoinRailGateway {
	return &stablecoinGatewayAdapter{
		config:     config,
		httpClient: httpClient,
		secrets:    secrets,
		logger:     logger,
	}
}

type stablecoinRecipientResponse struct {
	ID           string `json:"id"`
	Capabilities struct {
		CryptoWallet string `json:"crypto_wallet"`
	} `json:"capabilities"`
}

// GetRecipientStatus queries the processor for the recipient's live wallet
// capability
func (a *stablecoinGatewayAdapter) GetRecipientStatus(ctx context.Context, recipientID string) (*ports.StablecoinRecipientStatus, error) {
	secret, err := a.secrets.GetSecret(ctx, a.config.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("load stablecoin rail credentials: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/recipients/%s", a.config.BaseURL, recipientID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret.Value)

	startTime := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.logger.Error("stablecoin rail recipient lookup failed",
			ports.String("recipient_id", recipientID),
			ports.Err(err),
		)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	a.logger.Debug("stablecoin rail recipient lookup",
		ports.String("recipient_id", recipientID),
		ports.Int("status_code", resp.StatusCode),
		ports.String("elapsed", time.Since(startTime).String()),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stablecoin rail returned status %d: %s", resp.StatusCode, string(body))
	}

	var recipient stablecoinRecipientResponse
	if err := json.Unmarshal(body, &recipient); err != nil {
		return nil, fmt.Errorf("failed to parse recipient response: %w", err)
	}

	return &ports.StablecoinRecipientStatus{
		WalletCapability: recipient.Capabilities.CryptoWallet,
	}, nil
}
