package services

import (
	"context"
	"log/slog"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/store"

	"github.com/google/uuid"
)

// AuditService writes the contract audit trail. Appends are best effort:
// failures are logged and never reach the caller.
type AuditService struct {
	store  *store.AuditStore
	origin *OriginResolver
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditService(auditStore *store.AuditStore, origin *OriginResolver, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		store:  auditStore,
		origin: origin,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AuditService) Append(ctx context.Context, contractID string, signatoryID *string, action string, metadata map[string]any) {
	origin := s.origin.Resolve(ctx)

	event := &domain.AuditEvent{
		ID:          newEventID(),
		ContractID:  contractID,
		SignatoryID: signatoryID,
		Action:      action,
		IPAddress:   origin.IPAddress,
		UserAgent:   origin.UserAgent,
		Metadata:    metadata,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.Append(ctx, event); err != nil {
		s.logger.Error("failed to write audit event",
			"contract_id", contractID,
			"action", action,
			"error", err,
		)
	}
}

// ListForContract returns the trail newest first with the total count.
func (s *AuditService) ListForContract(ctx context.Context, contractID string, limit, offset int) ([]domain.AuditEvent, int64, error) {
	return s.store.ListForContract(ctx, contractID, limit, offset)
}

// Event ids are time ordered so ties on created_at still sort by insertion.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
