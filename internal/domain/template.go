package domain

import "time"

type TemplateCategory string

const (
	CategorySale    TemplateCategory = "sale"
	CategoryRental  TemplateCategory = "rental"
	CategoryService TemplateCategory = "service"
	CategoryOther   TemplateCategory = "other"
)

func (c TemplateCategory) Valid() bool {
	switch c {
	case CategorySale, CategoryRental, CategoryService, CategoryOther:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldEmail  FieldType = "email"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldDate:
		return true
	}
	return false
}

// TemplateField declares how a placeholder is filled and validated.
type TemplateField struct {
	Name     string    `json:"name"`
	Label    string    `json:"label,omitempty"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

type ContractTemplate struct {
	ID         string
	Name       string
	Category   TemplateCategory
	Content    string
	Fields     []TemplateField
	IsActive   bool
	SourcePath string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
