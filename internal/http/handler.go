package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HGakash/agrihub/internal/http/middleware"
	"github.com/HGakash/agrihub/internal/service"
	"github.com/HGakash/agrihub/internal/weather"
)

type Services struct {
	Contracts *service.ContractService
	Accounts  *service.AccountService
	Farmers   *service.FarmerService
	Reports   *service.ReportService
	Weather   *weather.Client
}

type Handler struct {
	contracts *service.ContractService
	accounts  *service.AccountService
	farmers   *service.FarmerService
	reports   *service.ReportService
	weather   *weather.Client
	log       zerolog.Logger
}

func NewHandler(services Services, log zerolog.Logger) *Handler {
	return &Handler{
		contracts: services.Contracts,
		accounts:  services.Accounts,
		farmers:   services.Farmers,
		reports:   services.Reports,
		weather:   services.Weather,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	if h.weather != nil {
		api.GET("/weather/forecast", h.forecast)
		api.POST("/weather/batch-forecast", h.batchForecast)
	}

	account := api.Group("/")
	account.Use(authMiddleware)
	account.GET("/me", h.me)
	account.POST("/farmers", h.createFarmer)
	account.GET("/farmers", h.listFarmers)
	account.GET("/farmers/:id", h.getFarmer)

	contracts := router.Group("/contracts")
	contracts.Use(authMiddleware)

	farmer := contracts.Group("/")
	farmer.Use(middleware.RequireRole(farmerRole))
	farmer.GET("/farmer/mycontract", h.listPending)
	farmer.POST("/accept/:id", h.acceptContract)
	farmer.POST("/reject/:id", h.rejectContract)
	farmer.GET("/accepted", h.listAccepted)

	dealer := contracts.Group("/")
	dealer.Use(middleware.RequireRole(dealerRole))
	dealer.POST("/create", h.createContract)
	dealer.GET("/dealer/all", h.listDealerContracts)
	dealer.GET("/dealer/summary", h.dealerSummary)
	dealer.GET("/dealer/export", h.exportDealerContracts)
	dealer.GET("/ledger/:id", h.ledgerReceipts)
}

// handleError maps service errors onto the {error, message} body. Unknown
// errors are logged and reported without detail.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, service.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, "conflict", err)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal error"})
	}
}

func respondError(c *gin.Context, status int, kind string, err error) {
	c.JSON(status, gin.H{"error": kind, "message": errorMessage(err)})
}

// errorMessage drops the sentinel prefix, "invalid input: x" becomes "x".
func errorMessage(err error) string {
	msg := err.Error()
	if _, rest, found := strings.Cut(msg, ": "); found {
		return rest
	}
	return msg
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": message})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
