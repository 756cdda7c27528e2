package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/gdsbooking/internal/auth"
	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/logger"
	"github.com/Domenick1991/gdsbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FlightHandler struct {
	service flights.FlightUseCase
	log     *zap.Logger
}

type priceRequest struct {
	FlightOfferID json.RawMessage `json:"flightOfferId"`
}

func NewFlightHandler(service flights.FlightUseCase, log *zap.Logger) *FlightHandler {
	return &FlightHandler{service: service, log: logger.OrNop(log)}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.POST("/price", h.price)
}

func (h *FlightHandler) search(c *gin.Context) {
	adults, err := optionalInt(c.Query("adults"))
	if err != nil {
		writeError(c, h.log, "search", domain.Validation("adults must be a number"))
		return
	}
	children, err := optionalInt(c.Query("children"))
	if err != nil {
		writeError(c, h.log, "search", domain.Validation("children must be a number"))
		return
	}

	offers, err := h.service.Search(c.Request.Context(), auth.UserID(c), flights.SearchInput{
		Origin:        c.Query("origin"),
		Destination:   c.Query("destination"),
		DepartureDate: c.Query("departureDate"),
		ReturnDate:    c.Query("returnDate"),
		Adults:        adults,
		Children:      children,
		TravelClass:   c.Query("travelClass"),
	})
	if err != nil {
		writeError(c, h.log, "search", err)
		return
	}
	if offers == nil {
		offers = []domain.FlightOffer{}
	}
	c.JSON(http.StatusOK, offers)
}

func (h *FlightHandler) price(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, "price", domain.Validation("Flight offer ID is required"))
		return
	}

	quote, err := h.service.Price(c.Request.Context(), auth.UserID(c), offerID(req.FlightOfferID))
	if err != nil {
		writeError(c, h.log, "price", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func optionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// offerID accepts the id as a JSON string or number.
func offerID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
