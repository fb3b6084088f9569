package handlers

import (
	"log/slog"
	"net/http"

	"CT-SIGN/internal/services"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the token-authenticated signing pages. Knowing the
// token is the only credential; the email gate is a convenience check.
type PublicHandler struct {
	contracts *services.ContractService
	logger    *slog.Logger
}

func NewPublicHandler(contracts *services.ContractService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{contracts: contracts, logger: logger}
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,max=255"`
}

type VerifyEmailResponse struct {
	SignatoryID string `json:"signatory_id"`
	Name        string `json:"name"`
	OrderIndex  int    `json:"order_index"`
}

func (h *PublicHandler) Get(c *gin.Context) {
	snap, err := h.contracts.GetContractByAccessToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicResponse(snap))
}

func (h *PublicHandler) Verify(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email is required")
		return
	}

	s, err := h.contracts.VerifyEmail(c.Request.Context(), c.Param("token"), req.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, VerifyEmailResponse{SignatoryID: s.ID, Name: s.Name, OrderIndex: s.OrderIndex})
}

func (h *PublicHandler) Sign(c *gin.Context) {
	var req services.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid signature request: "+err.Error())
		return
	}
	req.Token = c.Param("token")

	snap, err := h.contracts.SignContract(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPublicResponse(snap))
}

func (h *PublicHandler) ExportPDF(c *gin.Context) {
	doc, err := h.contracts.ExportPDFByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendDocument(c, doc)
}
