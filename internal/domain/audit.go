package domain

import "time"

const (
	ActionContractCreated    = "contract_created"
	ActionLinkAccessed       = "link_accessed"
	ActionSignatureCompleted = "signature_completed"
	ActionContractCompleted  = "contract_completed"
	ActionPDFExported        = "pdf_exported"
)

// AuditEvent is an immutable entry in a contract's audit trail.
type AuditEvent struct {
	ID          string
	ContractID  string
	SignatoryID *string
	Action      string
	IPAddress   string
	UserAgent   string
	Metadata    map[string]any
	CreatedAt   time.Time
}
