package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// ProgramRepository resolves program settlement configuration
type ProgramRepository interface {
	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Program, error)
	ListIDs(ctx context.Context, tx DBTX) ([]string, error)
}
