package discount

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

// RegisterRoutes exposes the public pre-check used by the booking form.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/discounts/validate", h.Validate)
}

// RegisterAdminRoutes exposes staff-only code management.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/discount-codes", h.List)
	rg.POST("/discount-codes", h.Create)
	rg.PUT("/discount-codes/:id", h.Update)
	rg.DELETE("/discount-codes/:id", h.Delete)
}

func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	outcome, err := h.service.Validate(c.Request.Context(), req.Code, req.WorkshopID, req.Email, req.Participants, req.Subtotal)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate discount code")
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

func (h *Handler) List(c *gin.Context) {
	codes, err := h.service.ListCodes(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list discount codes")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"codes": codes})
}

func (h *Handler) Create(c *gin.Context) {
	code, ok := h.bindCode(c)
	if !ok {
		return
	}

	if err := h.service.CreateCode(c.Request.Context(), code); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"code": code})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid code id")
		return
	}

	code, ok := h.bindCode(c)
	if !ok {
		return
	}
	code.ID = id

	if err := h.service.UpdateCode(c.Request.Context(), code); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"code": code})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid code id")
		return
	}

	if err := h.service.DeleteCode(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) bindCode(c *gin.Context) (*domain.DiscountCode, bool) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return nil, false
	}

	return &domain.DiscountCode{
		Code:               req.Code,
		Type:               domain.DiscountType(req.Type),
		Value:              req.Value,
		Active:             req.Active,
		StartsAt:           req.StartsAt,
		ExpiresAt:          req.ExpiresAt,
		MaxTotalUses:       req.MaxTotalUses,
		MaxUsesPerEmail:    req.MaxUsesPerEmail,
		MinParticipants:    req.MinParticipants,
		AllowedWorkshopIDs: req.AllowedWorkshopIDs,
		AllowedEmails:      req.AllowedEmails,
	}, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid discount code definition")
	case errors.Is(err, ErrCodeExists):
		response.Error(c, http.StatusConflict, "CODE_EXISTS", "A code with this name already exists")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Discount code not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save discount code")
	}
}
