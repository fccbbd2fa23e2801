package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/availability-api/internal/handler"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/service/appointment"
	"github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/httputil"
	"github.com/jwalitptl/availability-api/pkg/validator"
)

type Handler struct {
	service   *appointment.Service
	validator validator.Validator
}

func NewHandler(service *appointment.Service, v validator.Validator) *Handler {
	return &Handler{
		service:   service,
		validator: v,
	}
}

// RegisterRoutes mounts the read routes on r and the write routes on write.
func (h *Handler) RegisterRoutes(r, write *gin.RouterGroup) {
	r.GET("/appointments", h.ListAppointments)
	r.GET("/appointments/:id", h.GetAppointment)

	write.POST("/appointments", h.CreateAppointment)
	write.POST("/appointments/:id/cancel", h.CancelAppointment)
	write.PATCH("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	apt, err := h.service.Book(c.Request.Context(), clinicID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

// ListAppointments returns the appointments of one professional on one date.
func (h *Handler) ListAppointments(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	profID, err := handler.RequiredUUID(c, "professional_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithBadRequest(c, "date is required")
		return
	}

	apts, err := h.service.ListForDay(c.Request.Context(), clinicID, profID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apts)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), clinicID, id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), clinicID, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}
