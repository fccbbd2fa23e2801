package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/availability-api/internal/handler"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/service/schedule"
	"github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/httputil"
	"github.com/jwalitptl/availability-api/pkg/validator"
)

type Handler struct {
	service   *schedule.Service
	validator validator.Validator
}

func NewHandler(service *schedule.Service, v validator.Validator) *Handler {
	return &Handler{
		service:   service,
		validator: v,
	}
}

// RegisterRoutes mounts the read routes on r and the write routes on write,
// which callers guard with a role check.
func (h *Handler) RegisterRoutes(r, write *gin.RouterGroup) {
	r.GET("/schedules/templates", h.ListTemplates)
	r.GET("/schedules/exceptions", h.ListExceptions)

	write.PUT("/schedules/templates", h.UpsertTemplate)
	write.DELETE("/schedules/templates/:id", h.DeleteTemplate)
	write.POST("/schedules/exceptions", h.CreateException)
	write.DELETE("/schedules/exceptions/:id", h.DeleteException)
}

func (h *Handler) UpsertTemplate(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpsertWeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	tpl, err := h.service.UpsertTemplate(c.Request.Context(), clinicID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, tpl)
}

func (h *Handler) ListTemplates(c *gin.Context) {
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

	templates, err := h.service.ListTemplates(c.Request.Context(), clinicID, profID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, templates)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), clinicID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateException(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateScheduleExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, "invalid request body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	exc, err := h.service.CreateException(c.Request.Context(), clinicID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, exc)
}

func (h *Handler) ListExceptions(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := &model.ScheduleExceptionFilters{}
	profID, err := handler.OptionalUUID(c, "professional_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if profID != nil {
		filters.ProfessionalID = *profID
	}
	if c.Query("from") != "" {
		if filters.From, err = handler.RequiredDate(c, "from"); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}
	if c.Query("to") != "" {
		if filters.To, err = handler.RequiredDate(c, "to"); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}

	exceptions, err := h.service.ListExceptions(c.Request.Context(), clinicID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, exceptions)
}

func (h *Handler) DeleteException(c *gin.Context) {
	clinicID, err := handler.Clinic(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid exception id", err))
		return
	}

	if err := h.service.DeleteException(c.Request.Context(), clinicID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
