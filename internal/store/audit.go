package store

import (
	"context"
	"fmt"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/models"

	"gorm.io/gorm"
)

// AuditStore only ever inserts and reads audit events.
type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, e *domain.AuditEvent) error {
	if err := s.db.WithContext(ctx).Create(toAuditRow(e)).Error; err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// ListForContract returns events most recent first. A limit of zero returns
// every event.
func (s *AuditStore) ListForContract(ctx context.Context, contractID string, limit, offset int) ([]domain.AuditEvent, int64, error) {
	var total int64
	base := s.db.WithContext(ctx).Model(&models.ContractAuditEvent{}).Where("contract_id = ?", contractID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	query := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.ContractAuditEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(rows))
	for i := range rows {
		events = append(events, fromAuditRow(&rows[i]))
	}
	return events, total, nil
}
