package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContractAuditEvent rows are insert-only.
type ContractAuditEvent struct {
	ID          string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	ContractID  string            `gorm:"type:varchar(36);not null;index" json:"contract_id"`
	SignatoryID *string           `gorm:"type:varchar(36);index" json:"signatory_id"`
	Action      string            `gorm:"type:varchar(64);not null;index" json:"action"`
	IPAddress   string            `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string            `gorm:"type:text" json:"user_agent"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (ContractAuditEvent) TableName() string {
	return "contract_audit_events"
}
