package models

import (
	"time"

	"gorm.io/datatypes"
)

type GeneratedContract struct {
	ID                       string                                `gorm:"type:varchar(36);primaryKey" json:"id"`
	DealID                   string                                `gorm:"type:varchar(64);not null;index" json:"deal_id"`
	TemplateID               string                                `gorm:"type:varchar(36);index" json:"template_id"`
	Title                    string                                `gorm:"type:varchar(255);not null" json:"title"`
	Content                  string                                `gorm:"type:longtext;not null" json:"content"`
	Variables                datatypes.JSONType[map[string]string] `json:"variables"`
	Status                   string                                `gorm:"type:varchar(32);not null;index" json:"status"`
	CreatedBy                string                                `gorm:"type:varchar(64);not null" json:"created_by"`
	CreatorSignature         string                                `gorm:"type:longtext" json:"creator_signature"`
	CreatorSignedAt          *time.Time                            `json:"creator_signed_at"`
	AllSignaturesCompletedAt *time.Time                            `json:"all_signatures_completed_at"`
	AccessToken              string                                `gorm:"type:varchar(128);not null;uniqueIndex" json:"access_token"`
	CreatedAt                time.Time                             `json:"created_at"`
	UpdatedAt                time.Time                             `json:"updated_at"`

	Signatories []ContractSignatory `gorm:"foreignKey:ContractID" json:"signatories,omitempty"`
}

func (GeneratedContract) TableName() string {
	return "generated_contracts"
}

type ContractSignatory struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ContractID    string     `gorm:"type:varchar(36);not null;index" json:"contract_id"`
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	Email         string     `gorm:"type:varchar(255);not null" json:"email"`
	IsCreator     bool       `gorm:"not null;default:false" json:"is_creator"`
	OrderIndex    int        `gorm:"not null" json:"order_index"`
	Status        string     `gorm:"type:varchar(32);not null" json:"status"`
	SignedAt      *time.Time `json:"signed_at"`
	IPAddress     string     `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent     string     `gorm:"type:text" json:"user_agent"`
	SignatureData string     `gorm:"type:longtext" json:"signature_data"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ContractSignatory) TableName() string {
	return "contract_signatories"
}
