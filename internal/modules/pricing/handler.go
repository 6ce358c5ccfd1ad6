package pricing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campsite/internal/docstore"
	"campsite/internal/domain"
	"campsite/internal/pkg/response"
	"campsite/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/prices/:kind", h.GetPrices)
	rg.GET("/sites/:id/quote", h.QuoteForSite)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PUT("/prices/:kind", h.UpdatePrices)
}

func (h *Handler) GetPrices(c *gin.Context) {
	kind := domain.PriceKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown price table kind")
		return
	}

	table, err := h.service.Prices(c.Request.Context(), kind)
	if err != nil {
		h.storeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"kind": kind, "prices": table})
}

func (h *Handler) QuoteForSite(c *gin.Context) {
	quote, err := h.service.QuoteForSite(c.Request.Context(), domain.SiteID(c.Param("id")))
	if err != nil {
		h.storeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quote": quote})
}

type updatePricesRequest struct {
	Prices map[string]float64 `json:"prices" binding:"required"`
}

func (h *Handler) UpdatePrices(c *gin.Context) {
	kind := domain.PriceKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown price table kind")
		return
	}

	var req updatePricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	table := make(domain.PriceTable, len(req.Prices))
	for t, p := range req.Prices {
		table[domain.SiteType(t)] = p
	}

	if err := h.service.UpdatePrices(c.Request.Context(), kind, table); err != nil {
		if errors.Is(err, repository.ErrIncompletePriceTable) {
			response.Error(c, http.StatusUnprocessableEntity, "INCOMPLETE_PRICE_TABLE",
				"Price table must cover every site type")
			return
		}
		h.storeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true, "kind": kind})
}

func (h *Handler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Price table not found")
	case errors.Is(err, docstore.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"Reservation store unreachable, try again")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected failure")
	}
}
