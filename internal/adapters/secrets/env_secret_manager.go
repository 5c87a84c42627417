package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// envSecretManager implements ports.SecretManager over environment variables.
// Development only; production uses AWS Secrets Manager or Vault.
type envSecretManager struct {
	prefix string
	logger *zap.Logger
}

// NewEnvSecretManager creates a secret manager that maps secret paths to
// environment variables: "settlement-service/rails/bank/api-key" becomes
// "{PREFIX}RAILS_BANK_API_KEY" after the leading service segment is dropped.
func NewEnvSecretManager(prefix string, logger *zap.Logger) ports.SecretManager {
	return &envSecretManager{
		prefix: prefix,
		logger: logger,
	}
}

func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	key := m.envKey(path)

	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s (env %s)", path, key)
	}

	m.logger.Debug("secret retrieved from environment",
		zap.String("path", path),
		zap.String("env_key", key),
	)

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}

func (m *envSecretManager) envKey(path string) string {
	segments := strings.Split(path, "/")
	if len(segments) > 1 {
		// drop the "settlement-service" namespace segment
		segments = segments[1:]
	}
	key := strings.Join(segments, "_")
	key = strings.ReplaceAll(key, "-", "_")
	return m.prefix + strings.ToUpper(key)
}
