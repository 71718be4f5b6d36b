package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timebill/internal/application/port"
	"timebill/internal/application/service"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

// ClientRequest is the payload for creating or updating a client
type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (r ClientRequest) toInput() service.ClientInput {
	return service.ClientInput{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Notes:   r.Notes,
	}
}

// CreateClient handles POST /api/clients
func (h *Handlers) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, client)
}

// GetClient handles GET /api/clients/:id
func (h *Handlers) GetClient(c *gin.Context) {
	client, err := h.clientService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, client)
}

// ListClients handles GET /api/clients
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.clientService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, clients)
}

// UpdateClient handles PUT /api/clients/:id
func (h *Handlers) UpdateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, client)
}

// ProjectRequest is the payload for creating or updating a project. The
// hourly rate is display precision.
type ProjectRequest struct {
	ClientID    string  `json:"client_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	HourlyRate  float64 `json:"hourly_rate"`
}

func (r ProjectRequest) toInput() service.ProjectInput {
	status := r.Status
	if status == "" {
		status = entity.ProjectStatusActive
	}
	return service.ProjectInput{
		ClientID:    r.ClientID,
		Name:        r.Name,
		Description: r.Description,
		Status:      status,
		HourlyRate:  r.HourlyRate,
	}
}

// ProjectResponse decorates a project with its display-precision rate.
type ProjectResponse struct {
	*entity.Project
	HourlyRate float64 `json:"hourly_rate"`
}

func projectResponse(p *entity.Project) ProjectResponse {
	return ProjectResponse{
		Project:    p,
		HourlyRate: billing.FromCents(p.HourlyRateCents),
	}
}

// CreateProject handles POST /api/projects
func (h *Handlers) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, projectResponse(project))
}

// GetProject handles GET /api/projects/:id
func (h *Handlers) GetProject(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, projectResponse(project))
}

// ListProjects handles GET /api/projects
func (h *Handlers) ListProjects(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectResponse(p))
	}
	h.respond(c, http.StatusOK, out)
}

// UpdateProject handles PUT /api/projects/:id
func (h *Handlers) UpdateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, projectResponse(project))
}

// ExpenseRequest is the payload for creating or updating an expense. The
// amount is display precision; the date is date-only.
type ExpenseRequest struct {
	ProjectID   string  `json:"project_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Receipt     string  `json:"receipt"`
	Billable    bool    `json:"billable"`
}

// ExpenseResponse decorates an expense with its display-precision amount.
type ExpenseResponse struct {
	*entity.Expense
	Amount float64 `json:"amount"`
}

func expenseResponse(x *entity.Expense) ExpenseResponse {
	return ExpenseResponse{
		Expense: x,
		Amount:  billing.FromCents(x.AmountCents),
	}
}

func (h *Handlers) bindExpense(c *gin.Context) (service.ExpenseInput, bool) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return service.ExpenseInput{}, false
	}

	in := service.ExpenseInput{
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Amount:      req.Amount,
		Receipt:     req.Receipt,
		Billable:    req.Billable,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			h.badRequest(c, "invalid date")
			return service.ExpenseInput{}, false
		}
		in.Date = date
	}
	return in, true
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	in, ok := h.bindExpense(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, expenseResponse(expense))
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, expenseResponse(expense))
}

// ListExpensesRequest holds query parameters for GET /api/expenses
type ListExpensesRequest struct {
	ProjectID string `form:"project_id"`
	ClientID  string `form:"client_id"`
	Start     string `form:"start"`
	End       string `form:"end"`
	Billable  *bool  `form:"billable"`
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	var req ListExpensesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	filter := port.ExpenseFilter{
		ProjectID: req.ProjectID,
		ClientID:  req.ClientID,
		Billable:  req.Billable,
	}
	if req.Start != "" {
		start, err := parseDate(req.Start)
		if err != nil {
			h.badRequest(c, "invalid start date")
			return
		}
		filter.Start = &start
	}
	if req.End != "" {
		end, err := parseDate(req.End)
		if err != nil {
			h.badRequest(c, "invalid end date")
			return
		}
		filter.End = &end
	}

	expenses, err := h.expenseService.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]ExpenseResponse, 0, len(expenses))
	for _, x := range expenses {
		out = append(out, expenseResponse(x))
	}
	h.respond(c, http.StatusOK, out)
}

// UpdateExpense handles PUT /api/expenses/:id
func (h *Handlers) UpdateExpense(c *gin.Context) {
	in, ok := h.bindExpense(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, expenseResponse(expense))
}

// DeleteExpense handles DELETE /api/expenses/:id
func (h *Handlers) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, nil)
}
