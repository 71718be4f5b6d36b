package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timebill/internal/application/service"
	"timebill/internal/domain/billing"
)

// reportRange resolves the start and end query parameters, defaulting to the
// current calendar month.
func (h *Handlers) reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	if s := c.Query("start"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			h.badRequest(c, "invalid start date")
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if s := c.Query("end"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			h.badRequest(c, "invalid end date")
			return time.Time{}, time.Time{}, false
		}
		end = parsed
	}
	return start, end, true
}

// RevenueReport handles GET /api/reports/revenue. With format=xlsx the report
// is returned as a spreadsheet download instead of JSON.
func (h *Handlers) RevenueReport(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}

	report, err := h.reportService.Revenue(c.Request.Context(), currentUserID(c), start, end, c.Query("client_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		filename := "revenue-" + report.StartDate + "-" + report.EndDate + ".xlsx"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := h.exporter.RevenueReport(c.Writer, report); err != nil {
			h.respondError(c, err)
		}
		return
	}

	h.respond(c, http.StatusOK, report)
}

// TimeReport handles GET /api/reports/time
func (h *Handlers) TimeReport(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}

	opts := service.TimeReportOptions{
		Start:          start,
		End:            end,
		Grouping:       billing.ParseGrouping(c.Query("group_by")),
		ProjectID:      c.Query("project_id"),
		ClientID:       c.Query("client_id"),
		IncludeDetails: c.Query("details") == "true",
	}

	report, err := h.reportService.Time(c.Request.Context(), currentUserID(c), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, report)
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	notifications, counts, err := h.notificationService.Derive(c.Request.Context(), currentUserID(c), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"counts":        counts,
	})
}

// MarkReadRequest is the payload for POST /api/notifications/read
type MarkReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// MarkNotificationsRead handles POST /api/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), currentUserID(c), req.NotificationIDs); err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, nil)
}
