package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/availability-api/internal/handler"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/service/availability"
	"github.com/jwalitptl/availability-api/pkg/httputil"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/availability")
	{
		g.GET("/slots", h.GetSlots)
		g.GET("/slots/batch", h.GetBatchSlots)
		g.GET("/next", h.GetNextAvailable)
		g.GET("/week", h.GetWeekSummary)
		g.GET("/window", h.GetWorkingWindow)
	}
}

type slotsResponse struct {
	ProfessionalID string                   `json:"professional_id"`
	Date           string                   `json:"date"`
	AvailableCount int                      `json:"available_count"`
	Slots          []model.AvailabilitySlot `json:"slots"`
}

type nextResponse struct {
	Found bool                     `json:"found"`
	Slot  *model.NextAvailableSlot `json:"slot,omitempty"`
}

type windowResponse struct {
	Working bool                 `json:"working"`
	Window  *model.WorkingWindow `json:"window,omitempty"`
}

// slotQuery reads the parameters shared by the single-professional endpoints.
func slotQuery(c *gin.Context, dateParam string) (availability.SlotQuery, error) {
	profID, err := handler.RequiredUUID(c, "professional_id")
	if err != nil {
		return availability.SlotQuery{}, err
	}
	date, err := handler.RequiredDate(c, dateParam)
	if err != nil {
		return availability.SlotQuery{}, err
	}
	duration, err := handler.OptionalInt(c, "duration")
	if err != nil {
		return availability.SlotQuery{}, err
	}
	typeID, err := handler.OptionalUUID(c, "consultation_type_id")
	if err != nil {
		return availability.SlotQuery{}, err
	}

	return availability.SlotQuery{
		ProfessionalID:     profID,
		Date:               date,
		DurationMinutes:    duration,
		ConsultationTypeID: typeID,
	}, nil
}

func (h *Handler) GetSlots(c *gin.Context) {
	q, err := slotQuery(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	slots, err := h.service.GetSlots(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, slotsResponse{
		ProfessionalID: q.ProfessionalID.String(),
		Date:           q.Date.Format(model.DateLayout),
		AvailableCount: availability.CountAvailable(slots),
		Slots:          slots,
	})
}

func (h *Handler) GetBatchSlots(c *gin.Context) {
	ids, err := handler.UUIDList(c, "professional_ids")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date, err := handler.RequiredDate(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	duration, err := handler.OptionalInt(c, "duration")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.GenerateSlotsForProfessionals(c.Request.Context(), ids, date, duration)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, result)
}

func (h *Handler) GetNextAvailable(c *gin.Context) {
	q, err := slotQuery(c, "from")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	maxDays, err := handler.OptionalInt(c, "max_days")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	next, err := h.service.FindNextAvailableSlot(c.Request.Context(), q, maxDays)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, nextResponse{Found: next != nil, Slot: next})
}

func (h *Handler) GetWeekSummary(c *gin.Context) {
	q, err := slotQuery(c, "week_start")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	summary, err := h.service.GetWeekSummary(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, summary)
}

func (h *Handler) GetWorkingWindow(c *gin.Context) {
	profID, err := handler.RequiredUUID(c, "professional_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date, err := handler.RequiredDate(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	window := h.service.ResolveWorkingWindow(c.Request.Context(), profID, date)
	httputil.RespondWithSuccess(c, http.StatusOK, windowResponse{Working: window != nil, Window: window})
}
