// Package http provides the HTTP adapter for the application layer. It is a
// thin layer translating requests to service calls and domain errors to
// status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timebill/internal/application/service"
	"timebill/internal/export"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
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
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config: config,
		router: router,
		handlers: NewHandlers(
			timerService,
			entryService,
			expenseService,
			clientService,
			projectService,
			invoiceService,
			reportService,
			notificationService,
			exporter,
			defaults,
			logger,
		),
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	api.Use(identityMiddleware())
	{
		timer := api.Group("/timer")
		{
			timer.POST("/start", h.StartTimer)
			timer.POST("/:id/stop", h.StopTimer)
			timer.POST("/:id/resume", h.ResumeTimer)
			timer.GET("/current", h.CurrentTimer)
		}

		entries := api.Group("/time-entries")
		{
			entries.GET("", h.ListTimeEntries)
			entries.POST("", h.CreateTimeEntry)
			entries.GET("/:id", h.GetTimeEntry)
			entries.PUT("/:id", h.UpdateTimeEntry)
			entries.DELETE("/:id", h.DeleteTimeEntry)
		}

		expenses := api.Group("/expenses")
		{
			expenses.GET("", h.ListExpenses)
			expenses.POST("", h.CreateExpense)
			expenses.GET("/:id", h.GetExpense)
			expenses.PUT("/:id", h.UpdateExpense)
			expenses.DELETE("/:id", h.DeleteExpense)
		}

		clients := api.Group("/clients")
		{
			clients.GET("", h.ListClients)
			clients.POST("", h.CreateClient)
			clients.GET("/:id", h.GetClient)
			clients.PUT("/:id", h.UpdateClient)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.GET("/:id", h.GetProject)
			projects.PUT("/:id", h.UpdateProject)
		}

		invoices := api.Group("/invoices")
		{
			invoices.GET("", h.ListInvoices)
			invoices.POST("", h.CreateInvoice)
			invoices.GET("/:id", h.GetInvoice)
			invoices.PUT("/:id", h.UpdateInvoice)
			invoices.DELETE("/:id", h.DeleteInvoice)
			invoices.POST("/:id/payments", h.AddPayment)
			invoices.GET("/:id/export", h.ExportInvoice)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/revenue", h.RevenueReport)
			reports.GET("/time", h.TimeReport)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/read", h.MarkNotificationsRead)
		}
	}
}

// loggingMiddleware logs each request with latency and status
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
