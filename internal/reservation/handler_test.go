package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymslot/internal/apperr"
	"gymslot/internal/product"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) CreateReservation(ctx context.Context, cmd CreateCommand) (*Reservation, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) ConfirmReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) CancelReservation(ctx context.Context, id uuid.UUID, userID, reason string) (*Reservation, error) {
	args := m.Called(ctx, id, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) GetReservationsForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*SlotSnapshot, error) {
	args := m.Called(ctx, gymProductID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SlotSnapshot), args.Error(1)
}

func (m *MockService) GetUserReservations(ctx context.Context, userID string, includeCompleted bool) ([]Reservation, error) {
	args := m.Called(ctx, userID, includeCompleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *MockService) GetAvailableTimeSlots(ctx context.Context, gymProductID uuid.UUID, date time.Time) (*AvailableTimeSlots, error) {
	args := m.Called(ctx, gymProductID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailableTimeSlots), args.Error(1)
}

func (m *MockService) CompleteElapsed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func setupRouter(svc Service, userID string, level int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
			c.Set("membership_level", level)
		}
		c.Next()
	})

	h := NewHandler(svc)
	router.POST("/reservations", h.CreateReservation)
	router.POST("/reservations/:id/cancel", h.CancelReservation)
	router.GET("/reservations", h.ListMyReservations)
	router.GET("/products/:productID/slots", h.AvailableSlots)
	router.POST("/admin/reservations/:id/confirm", h.ConfirmReservation)
	router.GET("/admin/products/:productID/slots/reservations", h.SlotReservations)
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateReservation_Handler(t *testing.T) {
	productID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateReservation", mock.Anything, mock.MatchedBy(func(cmd CreateCommand) bool {
			return cmd.UserID == "u1" &&
				cmd.GymProductID == productID &&
				cmd.ReservationDateTime.Equal(monday19) &&
				cmd.MembershipLevel == product.MembershipPremium &&
				cmd.UserNotes != nil && *cmd.UserNotes == "knee injury"
		})).Return(&Reservation{ID: uuid.New(), UserID: "u1", Status: StatusPending}, nil)

		body := `{"gym_product_id":"` + productID.String() + `","reservation_date_time":"2025-01-13T19:00:00Z","user_notes":"knee injury"}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(svc, "u1", 1).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Pending", got["status"])
		svc.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateReservation", mock.Anything, mock.Anything).
			Return(nil, apperr.Conflict("Reservation.DuplicateSlotReservation", "User already has a reservation for this product and time slot"))

		body := `{"gym_product_id":"` + productID.String() + `","reservation_date_time":"2025-01-13T19:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(svc, "u1", 0).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Reservation.DuplicateSlotReservation", decodeError(t, w)["code"])
	})

	t.Run("invalid body", func(t *testing.T) {
		svc := new(MockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(`{"gym_product_id":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(svc, "u1", 0).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		setupRouter(new(MockService), "", 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCancelReservation_Handler(t *testing.T) {
	id := uuid.New()

	t.Run("ok", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CancelReservation", mock.Anything, id, "u1", "travel").
			Return(&Reservation{ID: id, Status: StatusCancelled}, nil)

		req := httptest.NewRequest(http.MethodPost, "/reservations/"+id.String()+"/cancel", bytes.NewBufferString(`{"reason":"travel"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(svc, "u1", 0).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("empty body reaches the service", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CancelReservation", mock.Anything, id, "u1", "").
			Return(nil, apperr.Validation("Reservation.CancellationError", "Cancellation reason is required"))

		w := httptest.NewRecorder()
		setupRouter(svc, "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations/"+id.String()+"/cancel", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Reservation.CancellationError", decodeError(t, w)["code"])
	})

	t.Run("not owner", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CancelReservation", mock.Anything, id, "u2", "travel").
			Return(nil, apperr.Forbidden("Reservation.NotOwner", "You can only cancel your own reservations"))

		req := httptest.NewRequest(http.MethodPost, "/reservations/"+id.String()+"/cancel", bytes.NewBufferString(`{"reason":"travel"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(svc, "u2", 0).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		setupRouter(new(MockService), "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations/42/cancel", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListMyReservations_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("GetUserReservations", mock.Anything, "u1", true).Return([]Reservation{{ID: uuid.New()}}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations?include_completed=true", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	w = httptest.NewRecorder()
	setupRouter(svc, "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations?include_completed=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailableSlots_Handler(t *testing.T) {
	productID := uuid.New()
	date := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

	svc := new(MockService)
	svc.On("GetAvailableTimeSlots", mock.Anything, productID, date).
		Return(&AvailableTimeSlots{GymProductID: productID, TimeSlots: []AvailableTimeSlot{}}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/slots?date=2025-01-13", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	setupRouter(svc, "u1", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/slots?date=13.01.2025", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmReservation_Handler(t *testing.T) {
	id := uuid.New()

	svc := new(MockService)
	svc.On("ConfirmReservation", mock.Anything, id).
		Return(nil, apperr.Validation("Reservation.CapacityExceeded", "Cannot confirm reservation. Maximum capacity (2) has been reached"))

	w := httptest.NewRecorder()
	setupRouter(svc, "admin", 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reservations/"+id.String()+"/confirm", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Reservation.CapacityExceeded", body["code"])
	assert.Equal(t, "Cannot confirm reservation. Maximum capacity (2) has been reached", body["error"])
}

func TestSlotReservations_Handler(t *testing.T) {
	productID := uuid.New()

	svc := new(MockService)
	svc.On("GetReservationsForSlot", mock.Anything, productID, mock.MatchedBy(func(at time.Time) bool {
		return at.Equal(monday19)
	})).Return(&SlotSnapshot{GymProductID: productID, TimeSlot: "19:00-20:00"}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, "admin", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/admin/products/"+productID.String()+"/slots/reservations?at=2025-01-13T19:00:00Z", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "19:00-20:00", got["time_slot"])

	w = httptest.NewRecorder()
	setupRouter(svc, "admin", 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/admin/products/"+productID.String()+"/slots/reservations?at=tomorrow", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
