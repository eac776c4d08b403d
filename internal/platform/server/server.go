package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zaylabs/erp/internal/adapters/http/handler"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/core/authz"
)

// Handlers は HTTP サーバーに登録するハンドラ一式です。
type Handlers struct {
	Auth        *handler.AuthHandler
	Employee    *handler.EmployeeHandler
	Recruitment *handler.RecruitmentHandler
	Attendance  *handler.AttendanceHandler
	Payroll     *handler.PayrollHandler
	KPI         *handler.KPIHandler
	Overview    *handler.OverviewHandler
}

// Server は HTTP サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	httpServer *http.Server
}

// New は指定されたアドレスで待ち受ける HTTP サーバーを構築します。
func New(listenAddr string, tokens *middleware.TokenManager, handlers Handlers, allowedOrigins []string) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	registerRoutes(router, tokens, handlers)

	return &Server{
		listenAddr: listenAddr,
		httpServer: &http.Server{
			Addr:              listenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func registerRoutes(router *gin.Engine, tokens *middleware.TokenManager, h Handlers) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(tokens.Authenticate())

	authed.GET("/auth/me", h.Auth.Me)
	authed.GET("/overview", h.Overview.Show)

	manage := middleware.RequireRole(
		authz.RoleAdmin, authz.RoleExecutive, authz.RoleManager, authz.RoleHR,
	)

	employees := authed.Group("/employees")
	{
		employees.GET("", h.Employee.List)
		employees.GET("/:id", h.Employee.Get)
		employees.POST("", manage, h.Employee.Create)
		employees.PATCH("/:id", manage, h.Employee.Update)
		employees.DELETE("/:id", manage, h.Employee.Delete)

		employees.POST("/:id/employment-details", manage, h.Employee.AddEmploymentDetail)
		employees.DELETE("/:id/employment-details/:detailID", manage, h.Employee.DeleteEmploymentDetail)
		employees.POST("/:id/documents", h.Employee.UploadDocument)
		employees.DELETE("/:id/documents/:documentID", manage, h.Employee.DeleteDocument)

		employees.POST("/:id/submit", h.Employee.SubmitForReview)
		employees.POST("/:id/documents-received", manage, h.Employee.MarkDocumentsReceived)
		employees.POST("/:id/approve-grace", h.Employee.ApproveGrace)
		employees.POST("/:id/login", manage, h.Employee.CreateLogin)

		employees.POST("/lock-sweep", manage, h.Employee.RunLockSweep)
	}

	recruitments := authed.Group("/recruitments")
	{
		recruitments.GET("", h.Recruitment.List)
		recruitments.GET("/stage-counts", h.Recruitment.StageCounts)
		recruitments.GET("/transitions/export", manage, h.Recruitment.ExportTransitions)
		recruitments.GET("/:id", h.Recruitment.Get)
		recruitments.GET("/:id/transitions", h.Recruitment.ListTransitions)
		recruitments.POST("", manage, h.Recruitment.Create)
		recruitments.PATCH("/:id", manage, h.Recruitment.Update)

		recruitments.POST("/:id/approve", h.Recruitment.Approve)
		recruitments.POST("/:id/convert", h.Recruitment.Convert)
		recruitments.POST("/:id/offer", manage, h.Recruitment.ExtendOffer)
		recruitments.POST("/:id/hired", manage, h.Recruitment.MarkHired)

		recruitments.DELETE("/:id", manage, h.Recruitment.Destroy)
		recruitments.POST("/:id/restore", manage, h.Recruitment.Restore)
		recruitments.POST("/restore-all", manage, h.Recruitment.RestoreAll)
		recruitments.DELETE("/:id/force", manage, h.Recruitment.ForceDelete)
	}

	attendance := authed.Group("/attendance")
	{
		attendance.GET("", h.Attendance.List)
		attendance.GET("/:id", h.Attendance.Get)
		attendance.POST("", manage, h.Attendance.Create)
		attendance.PATCH("/:id", manage, h.Attendance.Update)
		attendance.DELETE("/:id", manage, h.Attendance.Delete)
	}

	payroll := authed.Group("/payroll")
	{
		payroll.GET("", manage, h.Payroll.List)
		payroll.GET("/:id", manage, h.Payroll.Get)
		payroll.POST("", manage, h.Payroll.Create)
		payroll.PATCH("/:id", manage, h.Payroll.Update)
		payroll.DELETE("/:id", manage, h.Payroll.Delete)
	}

	kpis := authed.Group("/kpis")
	{
		kpis.GET("", h.KPI.List)
		kpis.GET("/:id", h.KPI.Get)
		kpis.POST("", manage, h.KPI.Create)
		kpis.PATCH("/:id", manage, h.KPI.Update)
		kpis.DELETE("/:id", manage, h.KPI.Delete)
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると Shutdown します。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve HTTP on %s: %w", s.listenAddr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
