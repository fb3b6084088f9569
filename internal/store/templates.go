package store

import (
	"context"
	"fmt"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/models"

	"gorm.io/gorm"
)

type TemplateStore struct {
	db *gorm.DB
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) Create(ctx context.Context, t *domain.ContractTemplate) error {
	row := toTemplateRow(t)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	*t = fromTemplateRow(row)
	return nil
}

func (s *TemplateStore) Update(ctx context.Context, t *domain.ContractTemplate) error {
	row := toTemplateRow(t)
	result := s.db.WithContext(ctx).Model(&models.ContractTemplate{}).
		Where("id = ?", t.ID).
		Select("name", "category", "content", "fields", "is_active", "source_path", "updated_at").
		Updates(row)
	if result.Error != nil {
		return fmt.Errorf("failed to update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.exists(ctx, t.ID)
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, id string) (*domain.ContractTemplate, error) {
	var row models.ContractTemplate
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "template "+id)
	}
	t := fromTemplateRow(&row)
	return &t, nil
}

func (s *TemplateStore) List(ctx context.Context, activeOnly bool) ([]domain.ContractTemplate, error) {
	var rows []models.ContractTemplate
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}

	templates := make([]domain.ContractTemplate, 0, len(rows))
	for i := range rows {
		templates = append(templates, fromTemplateRow(&rows[i]))
	}
	return templates, nil
}

func (s *TemplateStore) SetActive(ctx context.Context, id string, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.ContractTemplate{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

// exists tells an unchanged row apart from a missing one; MySQL reports zero
// affected rows for both.
func (s *TemplateStore) exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}
