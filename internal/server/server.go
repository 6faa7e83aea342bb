package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymslot/internal/auth"
	"gymslot/internal/config"
	"gymslot/internal/product"
	"gymslot/internal/recommend"
	"gymslot/internal/reservation"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a backing dependency is usable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Reservations    reservation.Service
	Products        product.Service
	Recommendations recommend.Service
	Health          HealthCheck
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(cfg *config.Config, deps Deps) *Server {
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health(deps.Health))
	router.GET("/metrics", Metrics())

	reservationHandler := reservation.NewHandler(deps.Reservations)
	productHandler := product.NewHandler(deps.Products)
	recommendHandler := recommend.NewHandler(deps.Recommendations)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, limiter.Middleware())
	{
		protected.POST("/reservations", reservationHandler.CreateReservation)
		protected.GET("/reservations", reservationHandler.ListMyReservations)
		protected.POST("/reservations/:id/cancel", reservationHandler.CancelReservation)
		protected.GET("/products/:productID", productHandler.GetProduct)
		protected.GET("/products/:productID/slots", reservationHandler.AvailableSlots)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/reservations/:id/confirm", reservationHandler.ConfirmReservation)
		admin.PUT("/products/:productID/schedule", productHandler.AssignSchedule)

		slots := admin.Group("/products/:productID/slots")
		slots.GET("/reservations", reservationHandler.SlotReservations)
		slots.GET("/analysis", recommendHandler.Analysis)
		slots.GET("/recommendations", recommendHandler.Recommendations)
		slots.GET("/optimization", recommendHandler.Optimization)
		slots.GET("/summary", recommendHandler.Summary)
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
