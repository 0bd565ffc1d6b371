package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes exposes the public booking form endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings/confirm/:token", h.ConfirmByToken)
}

// RegisterAdminRoutes exposes the staff booking management surface.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/workshops/:id/bookings", h.ListByWorkshop)
	rg.POST("/bookings", h.CreateConfirmed)
	rg.POST("/bookings/:id/confirm", h.ConfirmManually)
	rg.PUT("/bookings/:id", h.Edit)
	rg.DELETE("/bookings/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) ConfirmByToken(c *gin.Context) {
	res, err := h.service.ConfirmByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm booking")
		return
	}

	switch res.Status {
	case domain.ConfirmInvalid:
		response.Error(c, http.StatusNotFound, "TOKEN_INVALID", "This confirmation link is not valid")
	case domain.ConfirmExpired:
		response.Error(c, http.StatusGone, "TOKEN_EXPIRED", "This confirmation link has expired")
	case domain.ConfirmFull:
		response.Error(c, http.StatusConflict, "CAPACITY_REACHED", "Could not confirm: capacity reached")
	default:
		// ok and already both read as success to the booker.
		response.Success(c, http.StatusOK, res)
	}
}

func (h *Handler) ListByWorkshop(c *gin.Context) {
	workshopID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid workshop id")
		return
	}

	bookings, err := h.service.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) CreateConfirmed(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.CreateConfirmed(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) ConfirmManually(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	res, err := h.service.ConfirmManually(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.Status == domain.ConfirmFull {
		response.Error(c, http.StatusConflict, "CAPACITY_REACHED", "Could not confirm: capacity reached")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Edit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var req EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	req.ID = id

	b, err := h.service.Edit(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	res, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var rejected *DiscountRejectedError
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or workshop not found")
	case errors.Is(err, ErrWorkshopInactive):
		response.Error(c, http.StatusConflict, "WORKSHOP_INACTIVE", "This workshop is not open for booking")
	case errors.Is(err, ErrDuplicateBooking):
		response.Error(c, http.StatusConflict, "DUPLICATE_BOOKING", "A confirmed booking already exists for this email")
	case errors.Is(err, ErrCapacityReached):
		response.Error(c, http.StatusConflict, "CAPACITY_REACHED", "Could not confirm: capacity reached")
	case errors.As(err, &rejected):
		response.Error(c, http.StatusUnprocessableEntity, "CODE_INVALID", rejected.Message)
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process booking")
	}
}
