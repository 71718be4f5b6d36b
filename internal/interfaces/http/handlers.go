package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timebill/internal/application/service"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
	"timebill/internal/export"
)

// BillingDefaults pre-fills invoice fields the client omitted.
type BillingDefaults struct {
	TaxRate float64
	DueDays int
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	timerService        service.TimerService
	entryService        service.TimeEntryService
	expenseService      service.ExpenseService
	clientService       service.ClientService
	projectService      service.ProjectService
	invoiceService      service.InvoiceService
	reportService       service.ReportService
	notificationService service.NotificationService
	exporter            *export.ExcelExporter
	defaults            BillingDefaults
	logger              *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	timerService service.TimerService,
	entryService service.TimeEntryService,
	expenseService service.ExpenseService,
	clientService service.ClientService,
	projectService service.ProjectService,
	invoiceService service.InvoiceService,
	reportService service.ReportService,
	notificationService service.NotificationService,
	exporter *export.ExcelExporter,
	defaults BillingDefaults,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		timerService:        timerService,
		entryService:        entryService,
		expenseService:      expenseService,
		clientService:       clientService,
		projectService:      projectService,
		invoiceService:      invoiceService,
		reportService:       reportService,
		notificationService: notificationService,
		exporter:            exporter,
		defaults:            defaults,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var verr *billing.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, billing.ErrEntryInvoiced):
		c.JSON(http.StatusForbidden, Response{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "not found",
		})
	case errors.Is(err, billing.ErrOpenTimerExists), errors.Is(err, billing.ErrNumberCollision):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
		})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal error",
		})
	}
}

func (h *Handlers) respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.respond(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DurationResponse is the computed duration of a time entry.
type DurationResponse struct {
	Hours     float64 `json:"hours"`
	Formatted string  `json:"formatted"`
	Clamped   bool    `json:"clamped,omitempty"`
}

// TimeEntryResponse decorates an entry with its computed duration.
type TimeEntryResponse struct {
	*entity.TimeEntry
	Duration DurationResponse `json:"duration"`
}

func entryResponse(e *entity.TimeEntry) TimeEntryResponse {
	d := billing.Duration(e, time.Now())
	return TimeEntryResponse{
		TimeEntry: e,
		Duration: DurationResponse{
			Hours:     d.Hours,
			Formatted: d.Formatted,
			Clamped:   d.Clamped,
		},
	}
}

func entryResponses(entries []*entity.TimeEntry) []TimeEntryResponse {
	out := make([]TimeEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse(e))
	}
	return out
}

// StartTimerRequest is the payload for POST /api/timer/start
type StartTimerRequest struct {
	ProjectID   string `json:"project_id"`
	Description string `json:"description"`
	Billable    bool   `json:"billable"`
}

// StartTimer handles POST /api/timer/start
func (h *Handlers) StartTimer(c *gin.Context) {
	var req StartTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	entry, err := h.timerService.Start(c.Request.Context(), currentUserID(c), req.ProjectID, req.Description, req.Billable)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, entryResponse(entry))
}

// StopTimer handles POST /api/timer/:id/stop
func (h *Handlers) StopTimer(c *gin.Context) {
	entry, err := h.timerService.Stop(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, entryResponse(entry))
}

// ResumeTimer handles POST /api/timer/:id/resume
func (h *Handlers) ResumeTimer(c *gin.Context) {
	entry, err := h.timerService.Resume(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, entryResponse(entry))
}

// CurrentTimer handles GET /api/timer/current
func (h *Handlers) CurrentTimer(c *gin.Context) {
	entry, err := h.timerService.Current(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, entryResponse(entry))
}

// TimeEntryRequest is the payload for creating or updating a time entry.
// Times are RFC 3339; a null end time means the entry is an open timer.
type TimeEntryRequest struct {
	ProjectID   string     `json:"project_id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Billable    bool       `json:"billable"`
}

func (r TimeEntryRequest) toInput() service.TimeEntryInput {
	return service.TimeEntryInput{
		ProjectID:   r.ProjectID,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Billable:    r.Billable,
	}
}

// CreateTimeEntry handles POST /api/time-entries
func (h *Handlers) CreateTimeEntry(c *gin.Context) {
	var req TimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	entry, err := h.entryService.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, entryResponse(entry))
}

// GetTimeEntry handles GET /api/time-entries/:id
func (h *Handlers) GetTimeEntry(c *gin.Context) {
	entry, err := h.entryService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, entryResponse(entry))
}

// ListTimeEntriesRequest holds query parameters for GET /api/time-entries
type ListTimeEntriesRequest struct {
	ProjectID string `form:"project_id"`
	ClientID  string `form:"client_id"`
	Start     string `form:"start"`
	End       string `form:"end"`
	Billable  *bool  `form:"billable"`
	Quick     string `form:"quick"`
}

// ListTimeEntries handles GET /api/time-entries
func (h *Handlers) ListTimeEntries(c *gin.Context) {
	var req ListTimeEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	filters := service.ListFilters{
		ProjectID: req.ProjectID,
		ClientID:  req.ClientID,
		Billable:  req.Billable,
		Quick:     req.Quick,
	}

	if req.Start != "" {
		start, err := parseDate(req.Start)
		if err != nil {
			h.badRequest(c, "invalid start date")
			return
		}
		filters.Start = &start
	}
	if req.End != "" {
		end, err := parseDate(req.End)
		if err != nil {
			h.badRequest(c, "invalid end date")
			return
		}
		filters.End = &end
	}

	entries, err := h.entryService.List(c.Request.Context(), currentUserID(c), filters)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, entryResponses(entries))
}

// UpdateTimeEntry handles PUT /api/time-entries/:id
func (h *Handlers) UpdateTimeEntry(c *gin.Context) {
	var req TimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	entry, err := h.entryService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, entryResponse(entry))
}

// DeleteTimeEntry handles DELETE /api/time-entries/:id
func (h *Handlers) DeleteTimeEntry(c *gin.Context) {
	if err := h.entryService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, nil)
}

// parseDate accepts a date-only value, or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
