package domain

import "time"

type ContractStatus string

const (
	ContractPending       ContractStatus = "pending"
	ContractCreatorSigned ContractStatus = "creator_signed"
	ContractCompleted     ContractStatus = "completed"
	// ContractCancelled is reserved for an administrative override; no flow
	// currently produces it.
	ContractCancelled ContractStatus = "cancelled"
)

type SignatoryStatus string

const (
	SignatoryPending         SignatoryStatus = "pending"
	SignatoryAvailableToSign SignatoryStatus = "available_to_sign"
	SignatorySigned          SignatoryStatus = "signed"
)

// GeneratedContract is one resolved, signable instance of a template.
type GeneratedContract struct {
	ID                     string
	DealID                 string
	TemplateID             string
	Title                  string
	Content                string
	Variables              map[string]string
	Status                 ContractStatus
	CreatedBy              string
	CreatorSignature       string
	CreatorSignedAt        *time.Time
	AllSignaturesCompleted *time.Time
	AccessToken            string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Signatory is a party required to sign a GeneratedContract.
type Signatory struct {
	ID         string
	ContractID string
	Name       string
	Email      string
	IsCreator  bool
	OrderIndex int
	Status     SignatoryStatus
	SignedAt   *time.Time
	IPAddress  string
	UserAgent  string
	Signature  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s Signatory) Signed() bool {
	return s.Status == SignatorySigned
}

// SignatoryInput describes one party when a contract is generated.
type SignatoryInput struct {
	Name      string `json:"name" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	IsCreator bool   `json:"is_creator"`
}

// ClientInfo is what is captured about the caller of an operation.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// ContractSnapshot is a contract together with its signatories, ordered by
// order index.
type ContractSnapshot struct {
	Contract    GeneratedContract
	Signatories []Signatory
}
