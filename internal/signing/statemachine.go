// Package signing holds the signatory state machine and access tokens for
// generated contracts.
package signing

import (
	"fmt"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
)

// PlanSignatories builds the initial signatory set for a new contract. The
// first input is always the creator: it is stored pre-signed at order index 0
// with the creator's signature. Every other party starts available to sign.
func PlanSignatories(contractID string, inputs []domain.SignatoryInput, creatorSignature string, now time.Time, newID func() string) ([]domain.Signatory, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one signatory is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(creatorSignature) == "" {
		return nil, fmt.Errorf("creator signature is required: %w", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(inputs))
	signatories := make([]domain.Signatory, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		email := strings.TrimSpace(in.Email)
		if name == "" || email == "" {
			return nil, fmt.Errorf("signatory %d needs a name and an email: %w", i, domain.ErrInvalidInput)
		}
		key := NormalizeEmail(email)
		if seen[key] {
			return nil, fmt.Errorf("signatory email %s is repeated: %w", email, domain.ErrInvalidInput)
		}
		seen[key] = true

		s := domain.Signatory{
			ID:         newID(),
			ContractID: contractID,
			Name:       name,
			Email:      email,
			OrderIndex: i,
			Status:     domain.SignatoryAvailableToSign,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if i == 0 {
			signedAt := now
			s.IsCreator = true
			s.Status = domain.SignatorySigned
			s.SignedAt = &signedAt
			s.Signature = creatorSignature
		}
		signatories = append(signatories, s)
	}
	return signatories, nil
}

// CanSign reports why a signatory may not sign, or nil when it may.
func CanSign(s domain.Signatory) error {
	switch s.Status {
	case domain.SignatorySigned:
		return domain.ErrAlreadySigned
	case domain.SignatoryAvailableToSign:
		return nil
	default:
		return domain.ErrNotAuthorized
	}
}

// Find returns the signatory with the given id on the contract.
func Find(signatories []domain.Signatory, id string) (domain.Signatory, error) {
	for _, s := range signatories {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Signatory{}, fmt.Errorf("signatory %s: %w", id, domain.ErrNotFound)
}

// MatchEmail is the identity gate in front of signing. A match must be
// available to sign. An email that only matches a signed party yields
// ErrAlreadySigned; anything else yields ErrNotAuthorized without saying
// whether the email exists.
func MatchEmail(signatories []domain.Signatory, email string) (domain.Signatory, error) {
	want := NormalizeEmail(email)
	if want == "" {
		return domain.Signatory{}, domain.ErrNotAuthorized
	}

	alreadySigned := false
	for _, s := range signatories {
		if NormalizeEmail(s.Email) != want {
			continue
		}
		switch s.Status {
		case domain.SignatoryAvailableToSign:
			return s, nil
		case domain.SignatorySigned:
			alreadySigned = true
		}
	}
	if alreadySigned {
		return domain.Signatory{}, domain.ErrAlreadySigned
	}
	return domain.Signatory{}, domain.ErrNotAuthorized
}

// Aggregate derives the contract status from its signatories. Cancelled is
// terminal and never derived.
func Aggregate(current domain.ContractStatus, signatories []domain.Signatory) domain.ContractStatus {
	if current == domain.ContractCancelled {
		return current
	}
	if len(signatories) == 0 {
		return domain.ContractPending
	}

	allSigned := true
	creatorSigned := false
	for _, s := range signatories {
		if !s.Signed() {
			allSigned = false
		} else if s.IsCreator {
			creatorSigned = true
		}
	}

	switch {
	case allSigned:
		return domain.ContractCompleted
	case creatorSigned:
		return domain.ContractCreatorSigned
	default:
		return domain.ContractPending
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
