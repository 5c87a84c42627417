package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string            // The secret value (e.g., rail API key)
	Version  string            // Secret version identifier
	Metadata map[string]string // Additional secret metadata
}

// SecretManager defines the port for retrieving rail credentials from a
// secret management service. Supports multiple backends: AWS Secrets Manager,
// HashiCorp Vault, and an env-backed local store for development.
// Path format depends on implementation:
//   - AWS: "settlement-service/rails/{rail}/api-key"
//   - Vault: "secret/data/settlement-service/rails/{rail}"
type SecretManager interface {
	// GetSecret retrieves a secret by its path/name. Returns an error when
	// the secret does not exist, permissions are insufficient, or the secret
	// manager service is unavailable.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
