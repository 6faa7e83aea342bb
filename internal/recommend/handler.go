package recommend

import (
	"net/http"

	"gymslot/internal/api"
	"gymslot/internal/reservation"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Analysis scores every reservation of a slot.
// GET /admin/products/:productID/slots/analysis?at=2025-01-10T18:00:00Z
func (h *Handler) Analysis(c *gin.Context) {
	productID, at, ok := reservation.ParseSlotParams(c)
	if !ok {
		return
	}

	analysis, err := h.service.AnalyzeSlot(c.Request.Context(), productID, at)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GET /admin/products/:productID/slots/recommendations?at=...
func (h *Handler) Recommendations(c *gin.Context) {
	productID, at, ok := reservation.ParseSlotParams(c)
	if !ok {
		return
	}

	recs, err := h.service.GetRecommendations(c.Request.Context(), productID, at)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recs)
}

// GET /admin/products/:productID/slots/optimization?at=...
func (h *Handler) Optimization(c *gin.Context) {
	productID, at, ok := reservation.ParseSlotParams(c)
	if !ok {
		return
	}

	opt, err := h.service.OptimizeSlot(c.Request.Context(), productID, at)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, opt)
}

// GET /admin/products/:productID/slots/summary?at=...
func (h *Handler) Summary(c *gin.Context) {
	productID, at, ok := reservation.ParseSlotParams(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), productID, at)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
