package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// RewardRepository resolves reward policy records
type RewardRepository interface {
	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Reward, error)

	// GetForEnrollment returns the reward governing the given event type for
	// an enrollment: the enrollment's per-event override when present, else
	// the program default. Returns domain.ErrRewardNotFound when the program
	// does not reward the event at all.
	GetForEnrollment(ctx context.Context, tx DBTX, enrollmentID string, event domain.EventType) (*domain.Reward, error)
}

// EnrollmentRepository resolves program enrollments
type EnrollmentRepository interface {
	GetByPartnerAndProgram(ctx context.Context, tx DBTX, partnerID, programID string) (*domain.ProgramEnrollment, error)
}
