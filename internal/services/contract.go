package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/limiter"
	"CT-SIGN/internal/processor"
	"CT-SIGN/internal/render"
	"CT-SIGN/internal/signing"
	"CT-SIGN/internal/storage"
	"CT-SIGN/internal/store"

	"github.com/google/uuid"
)

// ContractService runs the signing session: generation, public access by
// token, the email gate, signature submission and exports.
type ContractService struct {
	contracts *store.ContractStore
	templates *store.TemplateStore
	audit     *AuditService
	renderer  render.Renderer
	objects   ObjectStore
	limiter   *limiter.Limiter
	logger    *slog.Logger

	signedURLExpiry time.Duration

	now      func() time.Time
	newID    func() string
	newToken func() (string, error)
}

type ContractServiceConfig struct {
	Contracts *store.ContractStore
	Templates *store.TemplateStore
	Audit     *AuditService
	Renderer  render.Renderer
	// Objects and Limiter are optional.
	Objects         ObjectStore
	Limiter         *limiter.Limiter
	SignedURLExpiry time.Duration
	Logger          *slog.Logger
}

func NewContractService(cfg ContractServiceConfig) *ContractService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	expiry := cfg.SignedURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &ContractService{
		contracts:       cfg.Contracts,
		templates:       cfg.Templates,
		audit:           cfg.Audit,
		renderer:        cfg.Renderer,
		objects:         cfg.Objects,
		limiter:         cfg.Limiter,
		logger:          logger,
		signedURLExpiry: expiry,
		now:             time.Now,
		newID:           uuid.NewString,
		newToken:        signing.NewAccessToken,
	}
}

// Matches the created_by column.
const maxCreatedByLen = 64

type GenerateRequest struct {
	DealID           string                  `json:"deal_id" binding:"required,max=64"`
	TemplateID       string                  `json:"template_id" binding:"required,max=36"`
	Title            string                  `json:"title" binding:"required,max=255"`
	Variables        map[string]string       `json:"variables"`
	Signatories      []domain.SignatoryInput `json:"signatories" binding:"required,min=1,dive"`
	CreatorSignature string                  `json:"creator_signature" binding:"required"`
	CreatedBy        string                  `json:"-"`
}

type SignRequest struct {
	Token          string `json:"-"`
	SignatoryID    string `json:"signatory_id" binding:"required,max=36"`
	Name           string `json:"name" binding:"required,max=255"`
	Email          string `json:"email" binding:"required,email,max=255"`
	SignatureImage string `json:"signature_image" binding:"required"`
}

type ArchiveResult struct {
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
	Size       int64     `json:"size"`
}

// GenerateContract resolves the template, stores the contract with the
// creator already signed and records contract_created. When the template
// cannot be loaded the contract gets a diagnostic document instead.
func (s *ContractService) GenerateContract(ctx context.Context, req GenerateRequest) (*domain.ContractSnapshot, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len(req.CreatedBy) > maxCreatedByLen {
		return nil, fmt.Errorf("%w: creator id is longer than %d characters", domain.ErrInvalidInput, maxCreatedByLen)
	}
	if _, err := render.DecodeSignature(req.CreatorSignature); err != nil {
		return nil, fmt.Errorf("%w: creator signature is not a valid image", domain.ErrInvalidInput)
	}
	variables := req.Variables
	if variables == nil {
		variables = map[string]string{}
	}

	content, fallback, err := s.resolveContent(ctx, req.TemplateID, req.Title, variables)
	if err != nil {
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	contractID := s.newID()
	signatories, err := signing.PlanSignatories(contractID, req.Signatories, req.CreatorSignature, now, s.newID)
	if err != nil {
		return nil, err
	}

	contract := domain.GeneratedContract{
		ID:               contractID,
		DealID:           req.DealID,
		TemplateID:       req.TemplateID,
		Title:            strings.TrimSpace(req.Title),
		Content:          content,
		Variables:        variables,
		CreatedBy:        req.CreatedBy,
		CreatorSignature: req.CreatorSignature,
		CreatorSignedAt:  &now,
		AccessToken:      token,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	// A creator-only contract is complete from the start.
	contract.Status = signing.Aggregate(domain.ContractCreatorSigned, signatories)
	if contract.Status == domain.ContractCompleted {
		contract.AllSignaturesCompleted = &now
	}

	if err := s.contracts.CreateWithSignatories(ctx, &contract, signatories); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, contract.ID, nil, domain.ActionContractCreated, map[string]any{
		"deal_id":           contract.DealID,
		"template_id":       contract.TemplateID,
		"created_by":        contract.CreatedBy,
		"signatories":       len(signatories),
		"template_fallback": fallback,
	})

	s.logger.Info("contract generated",
		"contract_id", contract.ID,
		"deal_id", contract.DealID,
		"signatories", len(signatories),
		"template_fallback", fallback,
	)
	return &domain.ContractSnapshot{Contract: contract, Signatories: signatories}, nil
}

func (s *ContractService) resolveContent(ctx context.Context, templateID, title string, variables map[string]string) (string, bool, error) {
	tmpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		s.logger.Warn("template unavailable, using diagnostic document",
			"template_id", templateID,
			"error", err,
		)
		return processor.FallbackDocument(title, variables), true, nil
	}

	placeholders := processor.ExtractPlaceholders(tmpl.Content)
	if err := processor.Validate(placeholders, tmpl.Fields, variables); err != nil {
		return "", false, err
	}
	return processor.Resolve(tmpl.Content, variables), false, nil
}

// GetContractByAccessToken is the public read path. Every call is recorded
// as link_accessed.
func (s *ContractService) GetContractByAccessToken(ctx context.Context, token string) (*domain.ContractSnapshot, error) {
	snap, err := s.snapshotByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	s.audit.Append(ctx, snap.Contract.ID, nil, domain.ActionLinkAccessed, nil)
	return snap, nil
}

// VerifyEmail is the identity gate: it returns the signatory that may sign
// with this email.
func (s *ContractService) VerifyEmail(ctx context.Context, token, email string) (*domain.Signatory, error) {
	key := s.limiter.Key(token, clientIP(ctx))
	if ok, retry := s.limiter.Allow(ctx, key); !ok {
		return nil, fmt.Errorf("%w: retry in %s", domain.ErrTooManyAttempts, retry.Round(time.Second))
	}

	snap, err := s.snapshotByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if snap.Contract.Status == domain.ContractCancelled {
		return nil, domain.ErrContractCancelled
	}

	signatory, err := signing.MatchEmail(snap.Signatories, email)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("failed to reset verification attempts", "error", err)
	}
	return &signatory, nil
}

// SignContract records one signature. The signatory must belong to the
// contract, still be available to sign and match the submitted email.
func (s *ContractService) SignContract(ctx context.Context, req SignRequest) (*domain.ContractSnapshot, error) {
	snap, err := s.snapshotByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	contract := snap.Contract
	if contract.Status == domain.ContractCancelled {
		return nil, domain.ErrContractCancelled
	}

	target, err := signing.Find(snap.Signatories, req.SignatoryID)
	if err != nil {
		return nil, err
	}
	if err := signing.CanSign(target); err != nil {
		return nil, fmt.Errorf("signatory %s: %w", target.ID, err)
	}
	if signing.NormalizeEmail(req.Email) != signing.NormalizeEmail(target.Email) {
		return nil, fmt.Errorf("signatory %s: %w", target.ID, domain.ErrNotAuthorized)
	}
	if _, err := render.DecodeSignature(req.SignatureImage); err != nil {
		return nil, fmt.Errorf("%w: signature is not a valid image", domain.ErrInvalidInput)
	}

	// Resolved once; the audit appends below reuse it from the context.
	origin := s.audit.origin.Resolve(ctx)
	ctx = WithClientInfo(ctx, origin)
	signedAt := s.now().UTC()
	if err := s.contracts.MarkSigned(ctx, contract.ID, target.ID, store.SignatureUpdate{
		SignedAt:  signedAt,
		Signature: req.SignatureImage,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	}); err != nil {
		return nil, err
	}

	signatoryID := target.ID
	s.audit.Append(ctx, contract.ID, &signatoryID, domain.ActionSignatureCompleted, map[string]any{
		"signer_name":  strings.TrimSpace(req.Name),
		"signer_email": signing.NormalizeEmail(req.Email),
		"ip_address":   origin.IPAddress,
		"user_agent":   origin.UserAgent,
		"signed_at":    signedAt.Format(time.RFC3339),
	})

	if err := s.recomputeAggregate(ctx, contract.ID, signedAt); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, contract.ID)
}

// recomputeAggregate reads the full signatory set and completes the contract
// when everyone has signed. Running it twice is harmless.
func (s *ContractService) recomputeAggregate(ctx context.Context, contractID string, at time.Time) error {
	signatories, err := s.contracts.ListSignatories(ctx, contractID)
	if err != nil {
		return err
	}
	if signing.Aggregate(domain.ContractCreatorSigned, signatories) != domain.ContractCompleted {
		return nil
	}

	changed, err := s.contracts.MarkCompleted(ctx, contractID, at)
	if err != nil {
		return err
	}
	if changed {
		s.audit.Append(ctx, contractID, nil, domain.ActionContractCompleted, map[string]any{
			"signatories": len(signatories),
		})
		s.logger.Info("contract completed", "contract_id", contractID)
	}
	return nil
}

func (s *ContractService) GetContract(ctx context.Context, id string) (*domain.ContractSnapshot, error) {
	return s.snapshot(ctx, id)
}

func (s *ContractService) ListByDeal(ctx context.Context, dealID string) ([]domain.GeneratedContract, error) {
	return s.contracts.ListByDeal(ctx, dealID)
}

func (s *ContractService) ListAudit(ctx context.Context, contractID string, limit, offset int) ([]domain.AuditEvent, int64, error) {
	if _, err := s.contracts.Get(ctx, contractID); err != nil {
		return nil, 0, err
	}
	return s.audit.ListForContract(ctx, contractID, limit, offset)
}

// ExportPDF renders the current state of a contract. It works at any point
// of the signing flow and never changes the contract.
func (s *ContractService) ExportPDF(ctx context.Context, id string) (*render.Document, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, snap, "admin")
}

func (s *ContractService) ExportPDFByToken(ctx context.Context, token string) (*render.Document, error) {
	snap, err := s.snapshotByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, snap, "public")
}

// ArchivePDF renders a snapshot, stores it in the bucket and returns a
// time-limited download URL.
func (s *ContractService) ArchivePDF(ctx context.Context, id string) (*ArchiveResult, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	doc, err := s.ExportPDF(ctx, id)
	if err != nil {
		return nil, err
	}

	objectName := storage.ContractExportObjectName(id, doc.Filename)
	uploaded, err := s.objects.Upload(ctx, bytes.NewReader(doc.Data), objectName, doc.ContentType, map[string]string{"contract_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to archive pdf: %w", err)
	}
	url, err := s.objects.SignedURL(objectName, s.signedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign archive url: %w", err)
	}

	return &ArchiveResult{
		ObjectName: uploaded.ObjectName,
		URL:        url,
		ExpiresAt:  s.now().UTC().Add(s.signedURLExpiry),
		Size:       uploaded.Size,
	}, nil
}

func (s *ContractService) export(ctx context.Context, snap *domain.ContractSnapshot, via string) (*render.Document, error) {
	doc, err := s.renderer.Render(ctx, *snap)
	if err != nil {
		if !errors.Is(err, domain.ErrRenderFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
		}
		s.logger.Error("pdf export failed", "contract_id", snap.Contract.ID, "error", err)
		return nil, err
	}

	s.audit.Append(ctx, snap.Contract.ID, nil, domain.ActionPDFExported, map[string]any{
		"filename": doc.Filename,
		"size":     len(doc.Data),
		"status":   string(snap.Contract.Status),
		"via":      via,
	})
	return doc, nil
}

func (s *ContractService) snapshot(ctx context.Context, id string) (*domain.ContractSnapshot, error) {
	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withSignatories(ctx, contract)
}

func (s *ContractService) snapshotByToken(ctx context.Context, token string) (*domain.ContractSnapshot, error) {
	contract, err := s.contracts.GetByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.withSignatories(ctx, contract)
}

func (s *ContractService) withSignatories(ctx context.Context, contract *domain.GeneratedContract) (*domain.ContractSnapshot, error) {
	signatories, err := s.contracts.ListSignatories(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	return &domain.ContractSnapshot{Contract: *contract, Signatories: signatories}, nil
}

func clientIP(ctx context.Context) string {
	if info, ok := ClientInfoFrom(ctx); ok && info.IPAddress != "" {
		return info.IPAddress
	}
	return UnknownOrigin
}
