package store

import (
	"context"
	"fmt"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/models"

	"gorm.io/gorm"
)

type ContractStore struct {
	db *gorm.DB
}

func NewContractStore(db *gorm.DB) *ContractStore {
	return &ContractStore{db: db}
}

// SignatureUpdate is the data written when a signatory signs.
type SignatureUpdate struct {
	SignedAt  time.Time
	Signature string
	IPAddress string
	UserAgent string
}

// CreateWithSignatories persists a contract and its signatories together.
func (s *ContractStore) CreateWithSignatories(ctx context.Context, c *domain.GeneratedContract, signatories []domain.Signatory) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toContractRow(c)).Error; err != nil {
			return fmt.Errorf("failed to save contract: %w", err)
		}
		for i := range signatories {
			if err := tx.Create(toSignatoryRow(&signatories[i])).Error; err != nil {
				return fmt.Errorf("failed to save signatory %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *ContractStore) Get(ctx context.Context, id string) (*domain.GeneratedContract, error) {
	var row models.GeneratedContract
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "contract "+id)
	}
	c := fromContractRow(&row)
	return &c, nil
}

func (s *ContractStore) GetByAccessToken(ctx context.Context, token string) (*domain.GeneratedContract, error) {
	if token == "" {
		return nil, fmt.Errorf("contract: %w", domain.ErrNotFound)
	}
	var row models.GeneratedContract
	if err := s.db.WithContext(ctx).First(&row, "access_token = ?", token).Error; err != nil {
		return nil, notFound(err, "contract")
	}
	c := fromContractRow(&row)
	return &c, nil
}

func (s *ContractStore) ListByDeal(ctx context.Context, dealID string) ([]domain.GeneratedContract, error) {
	var rows []models.GeneratedContract
	if err := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch contracts: %w", err)
	}

	contracts := make([]domain.GeneratedContract, 0, len(rows))
	for i := range rows {
		contracts = append(contracts, fromContractRow(&rows[i]))
	}
	return contracts, nil
}

// ListSignatories always reads from the database, ordered by order index.
func (s *ContractStore) ListSignatories(ctx context.Context, contractID string) ([]domain.Signatory, error) {
	var rows []models.ContractSignatory
	if err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("order_index ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch signatories: %w", err)
	}

	signatories := make([]domain.Signatory, 0, len(rows))
	for i := range rows {
		signatories = append(signatories, fromSignatoryRow(&rows[i]))
	}
	return signatories, nil
}

// MarkSigned moves one signatory to signed. The update only applies while the
// row is still available to sign, so two concurrent submissions cannot both
// succeed.
func (s *ContractStore) MarkSigned(ctx context.Context, contractID, signatoryID string, update SignatureUpdate) error {
	result := s.db.WithContext(ctx).Model(&models.ContractSignatory{}).
		Where("id = ? AND contract_id = ? AND status = ?", signatoryID, contractID, string(domain.SignatoryAvailableToSign)).
		Updates(map[string]interface{}{
			"status":         string(domain.SignatorySigned),
			"signed_at":      update.SignedAt,
			"signature_data": update.Signature,
			"ip_address":     update.IPAddress,
			"user_agent":     update.UserAgent,
			"updated_at":     update.SignedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update signatory: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var row models.ContractSignatory
	if err := s.db.WithContext(ctx).First(&row, "id = ? AND contract_id = ?", signatoryID, contractID).Error; err != nil {
		return notFound(err, "signatory "+signatoryID)
	}
	if row.Status == string(domain.SignatorySigned) {
		return fmt.Errorf("signatory %s: %w", signatoryID, domain.ErrAlreadySigned)
	}
	return fmt.Errorf("signatory %s is %s: %w", signatoryID, row.Status, domain.ErrNotAuthorized)
}

// MarkCompleted flips a contract to completed. It reports whether this call
// made the change; repeated calls are harmless.
func (s *ContractStore) MarkCompleted(ctx context.Context, contractID string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.GeneratedContract{}).
		Where("id = ? AND status NOT IN ?", contractID, []string{string(domain.ContractCompleted), string(domain.ContractCancelled)}).
		Updates(map[string]interface{}{
			"status":                      string(domain.ContractCompleted),
			"all_signatures_completed_at": at,
			"updated_at":                  at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete contract: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
