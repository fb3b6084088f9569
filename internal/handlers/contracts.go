package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/render"
	"CT-SIGN/internal/services"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contracts *services.ContractService
	baseURL   string
	logger    *slog.Logger
}

// NewContractHandler builds the admin contract routes. baseURL is the public
// frontend address used for signing links; empty leaves them out.
func NewContractHandler(contracts *services.ContractService, baseURL string, logger *slog.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (h *ContractHandler) detail(snap *domain.ContractSnapshot) ContractDetailResponse {
	resp := toDetailResponse(snap)
	if h.baseURL != "" {
		resp.SigningURL = h.baseURL + "/sign/" + snap.Contract.AccessToken
	}
	return resp
}

func (h *ContractHandler) Generate(c *gin.Context) {
	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid contract request: "+err.Error())
		return
	}
	req.CreatedBy = c.GetString(userIDKey)

	snap, err := h.contracts.GenerateContract(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, h.detail(snap))
}

func (h *ContractHandler) Get(c *gin.Context) {
	snap, err := h.contracts.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.detail(snap))
}

func (h *ContractHandler) ListByDeal(c *gin.Context) {
	dealID := c.Query("deal_id")
	if dealID == "" {
		badRequest(c, "deal_id is required")
		return
	}

	contracts, err := h.contracts.ListByDeal(c.Request.Context(), dealID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	resp := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		resp = append(resp, toContractResponse(&contracts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"contracts": resp})
}

func (h *ContractHandler) ExportPDF(c *gin.Context) {
	doc, err := h.contracts.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendDocument(c, doc)
}

func (h *ContractHandler) ArchivePDF(c *gin.Context) {
	res, err := h.contracts.ArchivePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func sendDocument(c *gin.Context, doc *render.Document) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
