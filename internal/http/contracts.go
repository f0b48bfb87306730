package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HGakash/agrihub/internal/http/middleware"
	"github.com/HGakash/agrihub/internal/model"
	"github.com/HGakash/agrihub/internal/service"
)

const (
	farmerRole = model.RoleFarmer
	dealerRole = model.RoleDealer
)

type createContractRequest struct {
	FarmerID        string      `json:"farmerId"`
	CompanyName     string      `json:"companyName"`
	ContractDetails string      `json:"contractDetails"`
	StartDate       string      `json:"startDate"`
	EndDate         string      `json:"endDate"`
	Duration        looseNumber `json:"duration"`
	PricePerUnit    float64     `json:"pricePerUnit"`
	GSTNumber       string      `json:"gstNumber"`
}

// looseNumber accepts a JSON number or a numeric string. Empty strings, null
// and anything unparseable leave it unset.
type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		n.value = &v
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			n.value = &parsed
		}
	}
	return nil
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing principal"})
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	contract, err := h.contracts.CreateContract(c.Request.Context(), service.CreateContractInput{
		FarmerID:        req.FarmerID,
		CompanyName:     req.CompanyName,
		ContractDetails: req.ContractDetails,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Duration:        req.Duration.value,
		PricePerUnit:    req.PricePerUnit,
		GSTNumber:       req.GSTNumber,
		Principal:       principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "contract created", "id": contract.ID.String()})
}

func (h *Handler) listPending(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	views, err := h.contracts.ListPendingForFarmer(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) listAccepted(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	views, err := h.contracts.ListAccepted(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) acceptContract(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	view, err := h.contracts.AcceptContract(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) rejectContract(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	view, err := h.contracts.RejectContract(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listDealerContracts(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	views, err := h.contracts.ListAllForDealer(c.Request.Context(), principal, c.Query("companyName"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) dealerSummary(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	summary, err := h.contracts.DealerSummary(c.Request.Context(), principal, c.Query("companyName"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) exportDealerContracts(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	format := c.DefaultQuery("format", string(model.ReportFormatXLSX))

	result, err := h.reports.GenerateReport(c.Request.Context(), service.GenerateReportInput{
		Principal:   principal,
		CompanyName: c.Query("companyName"),
		Format:      model.ReportFormat(format),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) ledgerReceipts(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	views, err := h.contracts.LedgerReceipts(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
