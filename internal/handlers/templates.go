package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/processor"
	"CT-SIGN/internal/services"

	"github.com/gin-gonic/gin"
)

const maxTemplateUpload = 10 << 20

type TemplateHandler struct {
	templates *services.TemplateService
	logger    *slog.Logger
}

func NewTemplateHandler(templates *services.TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: logger}
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req services.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid template: "+err.Error())
		return
	}

	t, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(t, processor.ExtractPlaceholders(t.Content)))
}

func (h *TemplateHandler) Update(c *gin.Context) {
	var req services.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid template: "+err.Error())
		return
	}

	t, err := h.templates.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(t, processor.ExtractPlaceholders(t.Content)))
}

func (h *TemplateHandler) Get(c *gin.Context) {
	t, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(t, processor.ExtractPlaceholders(t.Content)))
}

// List returns active templates unless ?all=true is given.
func (h *TemplateHandler) List(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	templates, err := h.templates.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		resp = append(resp, toTemplateResponse(&templates[i], processor.ExtractPlaceholders(templates[i].Content)))
	}
	c.JSON(http.StatusOK, gin.H{"templates": resp})
}

func (h *TemplateHandler) Placeholders(c *gin.Context) {
	names, err := h.templates.Placeholders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": names})
}

func (h *TemplateHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *TemplateHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *TemplateHandler) setActive(c *gin.Context, active bool) {
	if err := h.templates.SetActive(c.Request.Context(), c.Param("id"), active); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "is_active": active})
}

// Import accepts a multipart upload with a "template" .docx file plus
// "name" and "category" form fields.
func (h *TemplateHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("template")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".docx" {
		badRequest(c, "Only .docx files are supported")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxTemplateUpload+1))
	if err != nil {
		badRequest(c, "Failed to read upload")
		return
	}
	if len(data) > maxTemplateUpload {
		badRequest(c, "File is too large")
		return
	}

	category := domain.TemplateCategory(c.DefaultPostForm("category", string(domain.CategoryOther)))
	t, err := h.templates.ImportDocx(c.Request.Context(), c.PostForm("name"), category, header.Filename, data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(t, processor.ExtractPlaceholders(t.Content)))
}
