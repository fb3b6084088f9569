package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/processor"
	"CT-SIGN/internal/storage"
	"CT-SIGN/internal/store"

	"github.com/google/uuid"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type TemplateService struct {
	templates *store.TemplateStore
	objects   ObjectStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewTemplateService builds the service; objects may be nil, in which case
// imported sources are not archived.
func NewTemplateService(templates *store.TemplateStore, objects ObjectStore, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		templates: templates,
		objects:   objects,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

type TemplateInput struct {
	Name     string                  `json:"name" binding:"required,max=255"`
	Category domain.TemplateCategory `json:"category" binding:"required"`
	Content  string                  `json:"content" binding:"required"`
	Fields   []domain.TemplateField  `json:"fields"`
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*domain.ContractTemplate, error) {
	fields, err := checkTemplate(&in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &domain.ContractTemplate{
		ID:        s.newID(),
		Name:      in.Name,
		Category:  in.Category,
		Content:   in.Content,
		Fields:    fields,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Update(ctx context.Context, id string, in TemplateInput) (*domain.ContractTemplate, error) {
	fields, err := checkTemplate(&in)
	if err != nil {
		return nil, err
	}

	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = in.Name
	t.Category = in.Category
	t.Content = in.Content
	t.Fields = fields
	t.UpdatedAt = s.now().UTC()

	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*domain.ContractTemplate, error) {
	return s.templates.Get(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, activeOnly bool) ([]domain.ContractTemplate, error) {
	return s.templates.List(ctx, activeOnly)
}

// SetActive toggles availability in the active list. Contracts generated from
// an inactive template are unaffected.
func (s *TemplateService) SetActive(ctx context.Context, id string, active bool) error {
	return s.templates.SetActive(ctx, id, active)
}

// Placeholders lists the distinct placeholder names of a template in order of
// first appearance.
func (s *TemplateService) Placeholders(ctx context.Context, id string) ([]string, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return processor.ExtractPlaceholders(t.Content), nil
}

// ImportDocx creates a template from a Word document. Paragraph text becomes
// <p> markup and the original file is archived when object storage is set.
func (s *TemplateService) ImportDocx(ctx context.Context, name string, category domain.TemplateCategory, filename string, data []byte) (*domain.ContractTemplate, error) {
	proc := processor.NewDocxProcessor(data)
	if err := proc.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filename, ".docx")
	}
	t, err := s.Create(ctx, TemplateInput{Name: name, Category: category, Content: proc.Markup()})
	if err != nil {
		return nil, err
	}

	if s.objects == nil {
		return t, nil
	}
	objectName := storage.TemplateSourceObjectName(t.ID, filename, s.now())
	if _, err := s.objects.Upload(ctx, bytes.NewReader(data), objectName, docxContentType, map[string]string{"template_id": t.ID}); err != nil {
		s.logger.Warn("failed to archive template source", "template_id", t.ID, "error", err)
		return t, nil
	}
	t.SourcePath = objectName
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// checkTemplate validates the input and returns normalised field
// declarations.
func checkTemplate(in *TemplateInput) ([]domain.TemplateField, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, in.Category)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	for _, name := range processor.ExtractPlaceholders(in.Content) {
		if !processor.CanonicalName(name) {
			return nil, fmt.Errorf("%w: placeholder %q must be upper snake case", domain.ErrInvalidInput, name)
		}
	}

	fields := make([]domain.TemplateField, 0, len(in.Fields))
	seen := make(map[string]bool)
	for _, f := range in.Fields {
		if !processor.CanonicalName(f.Name) {
			return nil, fmt.Errorf("%w: field %q must be upper snake case", domain.ErrInvalidInput, f.Name)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: field %q declared twice", domain.ErrInvalidInput, f.Name)
		}
		seen[f.Name] = true
		if f.Type == "" {
			f.Type = domain.FieldText
		}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("%w: field %q has unknown type %q", domain.ErrInvalidInput, f.Name, f.Type)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
