package api

import (
	"encoding/json"
	"net/http"

	"github.com/Domenick1991/gdsbooking/internal/auth"
	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/logger"
	"github.com/Domenick1991/gdsbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     *zap.Logger
}

type bookRequest struct {
	Travelers json.RawMessage `json:"travelers"`
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: logger.OrNop(log)}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book", h.book)
	router.GET("/booking/:id", h.get)
	router.DELETE("/booking/:id", h.cancel)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookRequest
	var travelers []domain.Traveler
	if err := c.ShouldBindJSON(&req); err != nil || json.Unmarshal(req.Travelers, &travelers) != nil {
		writeError(c, h.log, "book", domain.Validation("Traveler information is required"))
		return
	}

	result, err := h.service.Book(c.Request.Context(), auth.UserID(c), travelers)
	if err != nil {
		writeError(c, h.log, "book", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, "get_booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		writeError(c, h.log, "cancel_booking", err)
		return
	}
	c.JSON(http.StatusOK, cancelResponse{Success: true, Message: "Booking cancelled successfully"})
}
