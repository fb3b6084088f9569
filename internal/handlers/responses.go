package handlers

import (
	"time"

	"CT-SIGN/internal/domain"
)

type TemplateResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Category     string                 `json:"category"`
	Content      string                 `json:"content"`
	Fields       []domain.TemplateField `json:"fields"`
	Placeholders []string               `json:"placeholders"`
	IsActive     bool                   `json:"is_active"`
	SourcePath   string                 `json:"source_path,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type ContractResponse struct {
	ID                     string            `json:"id"`
	DealID                 string            `json:"deal_id"`
	TemplateID             string            `json:"template_id"`
	Title                  string            `json:"title"`
	Content                string            `json:"content"`
	Variables              map[string]string `json:"variables,omitempty"`
	Status                 string            `json:"status"`
	CreatedBy              string            `json:"created_by,omitempty"`
	CreatorSignedAt        *time.Time        `json:"creator_signed_at"`
	AllSignaturesCompleted *time.Time        `json:"all_signatures_completed_at"`
	AccessToken            string            `json:"access_token,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

type SignatoryResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	IsCreator  bool       `json:"is_creator"`
	OrderIndex int        `json:"order_index"`
	Status     string     `json:"status"`
	SignedAt   *time.Time `json:"signed_at"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	Signature  string     `json:"signature,omitempty"`
}

type ContractDetailResponse struct {
	Contract    ContractResponse    `json:"contract"`
	Signatories []SignatoryResponse `json:"signatories"`
	SigningURL  string              `json:"signing_url,omitempty"`
}

type AuditEventResponse struct {
	ID          string         `json:"id"`
	ContractID  string         `json:"contract_id"`
	SignatoryID *string        `json:"signatory_id"`
	Action      string         `json:"action"`
	IPAddress   string         `json:"ip_address"`
	UserAgent   string         `json:"user_agent"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toTemplateResponse(t *domain.ContractTemplate, placeholders []string) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Category:     string(t.Category),
		Content:      t.Content,
		Fields:       t.Fields,
		Placeholders: placeholders,
		IsActive:     t.IsActive,
		SourcePath:   t.SourcePath,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toContractResponse(c *domain.GeneratedContract) ContractResponse {
	return ContractResponse{
		ID:                     c.ID,
		DealID:                 c.DealID,
		TemplateID:             c.TemplateID,
		Title:                  c.Title,
		Content:                c.Content,
		Variables:              c.Variables,
		Status:                 string(c.Status),
		CreatedBy:              c.CreatedBy,
		CreatorSignedAt:        c.CreatorSignedAt,
		AllSignaturesCompleted: c.AllSignaturesCompleted,
		AccessToken:            c.AccessToken,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

// toDetailResponse renders a snapshot for administrators.
func toDetailResponse(snap *domain.ContractSnapshot) ContractDetailResponse {
	resp := ContractDetailResponse{
		Contract:    toContractResponse(&snap.Contract),
		Signatories: make([]SignatoryResponse, 0, len(snap.Signatories)),
	}
	for _, s := range snap.Signatories {
		resp.Signatories = append(resp.Signatories, SignatoryResponse{
			ID:         s.ID,
			Name:       s.Name,
			Email:      s.Email,
			IsCreator:  s.IsCreator,
			OrderIndex: s.OrderIndex,
			Status:     string(s.Status),
			SignedAt:   s.SignedAt,
			IPAddress:  s.IPAddress,
			UserAgent:  s.UserAgent,
			Signature:  s.Signature,
		})
	}
	return resp
}

// toPublicResponse is what a token holder sees: no emails, capture data,
// signature images, variables or the token itself.
func toPublicResponse(snap *domain.ContractSnapshot) ContractDetailResponse {
	contract := toContractResponse(&snap.Contract)
	contract.Variables = nil
	contract.CreatedBy = ""
	contract.AccessToken = ""

	resp := ContractDetailResponse{
		Contract:    contract,
		Signatories: make([]SignatoryResponse, 0, len(snap.Signatories)),
	}
	for _, s := range snap.Signatories {
		resp.Signatories = append(resp.Signatories, SignatoryResponse{
			ID:         s.ID,
			Name:       s.Name,
			IsCreator:  s.IsCreator,
			OrderIndex: s.OrderIndex,
			Status:     string(s.Status),
			SignedAt:   s.SignedAt,
		})
	}
	return resp
}

func toAuditResponses(events []domain.AuditEvent) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			ID:          e.ID,
			ContractID:  e.ContractID,
			SignatoryID: e.SignatoryID,
			Action:      e.Action,
			IPAddress:   e.IPAddress,
			UserAgent:   e.UserAgent,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
