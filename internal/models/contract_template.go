package models

import (
	"time"

	"CT-SIGN/internal/domain"

	"gorm.io/datatypes"
)

type ContractTemplate struct {
	ID         string                                    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string                                    `gorm:"type:varchar(255);not null" json:"name"`
	Category   string                                    `gorm:"type:varchar(32);not null;index" json:"category"`
	Content    string                                    `gorm:"type:longtext;not null" json:"content"`
	Fields     datatypes.JSONSlice[domain.TemplateField] `json:"fields"`
	IsActive   bool                                      `gorm:"not null;default:true;index" json:"is_active"`
	SourcePath string                                    `gorm:"type:varchar(512)" json:"source_path"`
	CreatedAt  time.Time                                 `json:"created_at"`
	UpdatedAt  time.Time                                 `json:"updated_at"`
}

func (ContractTemplate) TableName() string {
	return "contract_templates"
}
