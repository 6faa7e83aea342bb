package product

import (
	"net/http"

	"gymslot/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetProduct returns the reservation view of a gym product.
// GET /products/:productID
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		api.BadRequest(c, "Invalid product ID")
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// AssignSchedule replaces the weekly schedule and capacity bounds.
// PUT /admin/products/:productID/schedule
func (h *Handler) AssignSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		api.BadRequest(c, "Invalid product ID")
		return
	}

	var req AssignScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	p, err := h.service.AssignSchedule(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
