package reservation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campsite/internal/docstore"
	"campsite/internal/domain"
	"campsite/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the read-only and propose endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/reservations", h.ListAll)
	rg.GET("/sites/:id/reservations", h.ListForSite)
	rg.POST("/reservations/propose", h.Propose)
}

// RegisterAdminRoutes mounts the mutating endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations", h.Commit)
	rg.DELETE("/sites/:id/reservations/:start", h.Cancel)
}

func (h *Handler) ListAll(c *gin.Context) {
	all, err := h.service.AllReservations(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}

	out := make(map[string][]ReservationResponse, len(all))
	for siteID, set := range all {
		out[string(siteID)] = toResponses(siteID, set.Ordered())
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": out})
}

func (h *Handler) ListForSite(c *gin.Context) {
	siteID := domain.SiteID(c.Param("id"))
	rs, err := h.service.SiteReservations(c.Request.Context(), siteID)
	if err != nil {
		storeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": toResponses(siteID, rs)})
}

func (h *Handler) Propose(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	outcome, err := h.service.Propose(c.Request.Context(), ProposeRequest{
		SiteID: domain.SiteID(req.SiteID),
		Start:  req.Start,
		End:    req.End,
		Name:   req.Name,
	})
	if err != nil {
		storeError(c, err)
		return
	}
	if outcome != Accepted {
		response.Rejected(c, string(outcome), outcome.Message())
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"accepted": true,
		"message":  outcome.Message(),
	})
}

func (h *Handler) Commit(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, outcome, err := h.service.Commit(c.Request.Context(), ProposeRequest{
		SiteID: domain.SiteID(req.SiteID),
		Start:  req.Start,
		End:    req.End,
		Name:   req.Name,
	})
	if err != nil {
		storeError(c, err)
		return
	}
	if outcome != Accepted {
		response.Rejected(c, string(outcome), outcome.Message())
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"accepted":    true,
		"reservation": toResponse(domain.SiteID(req.SiteID), res),
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	siteID := domain.SiteID(c.Param("id"))
	cancelled := h.service.Cancel(c.Request.Context(), siteID, c.Param("start"))
	response.Success(c, http.StatusOK, gin.H{"cancelled": cancelled})
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownSite), errors.Is(err, docstore.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Unknown site or reservation")
	case errors.Is(err, docstore.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"Reservation store unreachable, try again")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected failure")
	}
}
