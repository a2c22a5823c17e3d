package registrations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"registration-portal/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches registration routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/registration", h.create)
	rg.GET("/registrations", h.list)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Detail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		var underage *UnderageError
		switch {
		case errors.As(err, &underage):
			respond.Detail(c, http.StatusBadRequest, underage.Error())
		case errors.Is(err, ErrInvalidInput):
			respond.Detail(c, http.StatusBadRequest, ErrInvalidInput.Error())
		default:
			respond.Detail(c, http.StatusInternalServerError, "failed to create registration")
		}
		return
	}

	c.Set("registrationId", reg.RegistrationID)
	respond.OK(c, reg)
}

func (h *Handler) list(c *gin.Context) {
	regs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Detail(c, http.StatusInternalServerError, "failed to fetch registrations")
		return
	}
	if regs == nil {
		regs = []Registration{}
	}
	respond.OK(c, regs)
}
