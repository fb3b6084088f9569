package store

import (
	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/models"

	"gorm.io/datatypes"
)

func toTemplateRow(t *domain.ContractTemplate) *models.ContractTemplate {
	return &models.ContractTemplate{
		ID:         t.ID,
		Name:       t.Name,
		Category:   string(t.Category),
		Content:    t.Content,
		Fields:     datatypes.NewJSONSlice(nonNilFields(t.Fields)),
		IsActive:   t.IsActive,
		SourcePath: t.SourcePath,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func fromTemplateRow(row *models.ContractTemplate) domain.ContractTemplate {
	return domain.ContractTemplate{
		ID:         row.ID,
		Name:       row.Name,
		Category:   domain.TemplateCategory(row.Category),
		Content:    row.Content,
		Fields:     []domain.TemplateField(row.Fields),
		IsActive:   row.IsActive,
		SourcePath: row.SourcePath,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func nonNilFields(fields []domain.TemplateField) []domain.TemplateField {
	if fields == nil {
		return []domain.TemplateField{}
	}
	return fields
}

func toContractRow(c *domain.GeneratedContract) *models.GeneratedContract {
	vars := c.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	return &models.GeneratedContract{
		ID:                       c.ID,
		DealID:                   c.DealID,
		TemplateID:               c.TemplateID,
		Title:                    c.Title,
		Content:                  c.Content,
		Variables:                datatypes.NewJSONType(vars),
		Status:                   string(c.Status),
		CreatedBy:                c.CreatedBy,
		CreatorSignature:         c.CreatorSignature,
		CreatorSignedAt:          c.CreatorSignedAt,
		AllSignaturesCompletedAt: c.AllSignaturesCompleted,
		AccessToken:              c.AccessToken,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
	}
}

func fromContractRow(row *models.GeneratedContract) domain.GeneratedContract {
	return domain.GeneratedContract{
		ID:                     row.ID,
		DealID:                 row.DealID,
		TemplateID:             row.TemplateID,
		Title:                  row.Title,
		Content:                row.Content,
		Variables:              row.Variables.Data(),
		Status:                 domain.ContractStatus(row.Status),
		CreatedBy:              row.CreatedBy,
		CreatorSignature:       row.CreatorSignature,
		CreatorSignedAt:        row.CreatorSignedAt,
		AllSignaturesCompleted: row.AllSignaturesCompletedAt,
		AccessToken:            row.AccessToken,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func toSignatoryRow(s *domain.Signatory) *models.ContractSignatory {
	return &models.ContractSignatory{
		ID:            s.ID,
		ContractID:    s.ContractID,
		Name:          s.Name,
		Email:         s.Email,
		IsCreator:     s.IsCreator,
		OrderIndex:    s.OrderIndex,
		Status:        string(s.Status),
		SignedAt:      s.SignedAt,
		IPAddress:     s.IPAddress,
		UserAgent:     s.UserAgent,
		SignatureData: s.Signature,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromSignatoryRow(row *models.ContractSignatory) domain.Signatory {
	return domain.Signatory{
		ID:         row.ID,
		ContractID: row.ContractID,
		Name:       row.Name,
		Email:      row.Email,
		IsCreator:  row.IsCreator,
		OrderIndex: row.OrderIndex,
		Status:     domain.SignatoryStatus(row.Status),
		SignedAt:   row.SignedAt,
		IPAddress:  row.IPAddress,
		UserAgent:  row.UserAgent,
		Signature:  row.SignatureData,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func toAuditRow(e *domain.AuditEvent) *models.ContractAuditEvent {
	metadata := datatypes.JSONMap{}
	for k, v := range e.Metadata {
		metadata[k] = v
	}
	return &models.ContractAuditEvent{
		ID:          e.ID,
		ContractID:  e.ContractID,
		SignatoryID: e.SignatoryID,
		Action:      e.Action,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		Metadata:    metadata,
		CreatedAt:   e.CreatedAt,
	}
}

func fromAuditRow(row *models.ContractAuditEvent) domain.AuditEvent {
	return domain.AuditEvent{
		ID:          row.ID,
		ContractID:  row.ContractID,
		SignatoryID: row.SignatoryID,
		Action:      row.Action,
		IPAddress:   row.IPAddress,
		UserAgent:   row.UserAgent,
		Metadata:    map[string]any(row.Metadata),
		CreatedAt:   row.CreatedAt,
	}
}
