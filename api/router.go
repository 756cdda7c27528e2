package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/Domenick1991/gdsbooking/internal/auth"
	"github.com/Domenick1991/gdsbooking/internal/logger"
	"github.com/Domenick1991/gdsbooking/internal/service/booking"
	"github.com/Domenick1991/gdsbooking/internal/service/flights"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
}

// NewRouter mounts the health check at / and the authenticated flight
// workflow under /api/flights.
func NewRouter(cfg RouterConfig, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, log *zap.Logger) *gin.Engine {
	log = logger.OrNop(log)

	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log), cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "GDS Flight Booking API is running")
	})

	group := r.Group("/api/flights", auth.Middleware(cfg.JWTSecret))
	NewFlightHandler(flightSvc, log).Register(group)
	NewBookingHandler(bookingSvc, log).Register(group)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
