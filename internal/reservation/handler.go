package reservation

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"gymslot/internal/api"
	"gymslot/internal/auth"
	"gymslot/internal/product"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type CreateReservationRequest struct {
	GymProductID        string    `json:"gym_product_id" binding:"required,uuid"`
	ReservationDateTime time.Time `json:"reservation_date_time" binding:"required"`
	UserNotes           *string   `json:"user_notes" binding:"omitempty,max=500"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// CreateReservation admits a pending reservation for the caller.
// POST /reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	productID, err := uuid.Parse(req.GymProductID)
	if err != nil {
		api.BadRequest(c, "Invalid gym product ID")
		return
	}

	level, _ := auth.GetMembershipLevel(c)

	res, err := h.service.CreateReservation(c.Request.Context(), CreateCommand{
		UserID:              userID,
		GymProductID:        productID,
		ReservationDateTime: req.ReservationDateTime,
		UserNotes:           req.UserNotes,
		MembershipLevel:     product.MembershipLevel(level),
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// CancelReservation cancels one of the caller's reservations.
// POST /reservations/:id/cancel
func (h *Handler) CancelReservation(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.BadRequest(c, "Invalid reservation ID")
		return
	}

	var req CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		api.RespondBindError(c, err)
		return
	}

	res, err := h.service.CancelReservation(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListMyReservations lists the caller's reservations, newest slot first.
// GET /reservations?include_completed=true
func (h *Handler) ListMyReservations(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	includeCompleted := false
	if raw := c.Query("include_completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			api.BadRequest(c, "include_completed must be a boolean")
			return
		}
		includeCompleted = v
	}

	list, err := h.service.GetUserReservations(c.Request.Context(), userID, includeCompleted)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// AvailableSlots lists the product's slots on a date with occupancy.
// GET /products/:productID/slots?date=2025-01-10
func (h *Handler) AvailableSlots(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		api.BadRequest(c, "Invalid product ID")
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		api.BadRequest(c, "date must use the YYYY-MM-DD format")
		return
	}

	slots, err := h.service.GetAvailableTimeSlots(c.Request.Context(), productID, date)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// ConfirmReservation runs the capacity-gated confirmation.
// POST /admin/reservations/:id/confirm
func (h *Handler) ConfirmReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.BadRequest(c, "Invalid reservation ID")
		return
	}

	res, err := h.service.ConfirmReservation(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// SlotReservations returns the occupancy snapshot of one slot.
// GET /admin/products/:productID/slots/reservations?at=2025-01-10T18:00:00Z
func (h *Handler) SlotReservations(c *gin.Context) {
	productID, at, ok := ParseSlotParams(c)
	if !ok {
		return
	}

	snap, err := h.service.GetReservationsForSlot(c.Request.Context(), productID, at)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ParseSlotParams reads the productID path parameter and the RFC 3339 "at"
// query parameter. It writes a 400 response and returns false on bad input.
func ParseSlotParams(c *gin.Context) (uuid.UUID, time.Time, bool) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		api.BadRequest(c, "Invalid product ID")
		return uuid.Nil, time.Time{}, false
	}

	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		api.BadRequest(c, "at must be an RFC 3339 date time")
		return uuid.Nil, time.Time{}, false
	}

	return productID, at, true
}
