package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campsite/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sites", h.ListSites)
}

// ListSites returns the reservable sites grouped by type.
func (h *Handler) ListSites(c *gin.Context) {
	types := h.service.SiteTypes()
	grouped := make(map[string][]string, len(types))
	for _, t := range types {
		ids := h.service.SitesOfType(t)
		list := make([]string, len(ids))
		for i, id := range ids {
			list[i] = string(id)
		}
		grouped[string(t)] = list
	}

	response.Success(c, http.StatusOK, gin.H{
		"site_types": types,
		"sites":      grouped,
	})
}
