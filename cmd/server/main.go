package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zaylabs/erp/internal/adapters/http/handler"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/adapters/notify"
	"github.com/zaylabs/erp/internal/adapters/repository/postgres"
	"github.com/zaylabs/erp/internal/adapters/storage"
	"github.com/zaylabs/erp/internal/core/attendance"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/core/kpi"
	"github.com/zaylabs/erp/internal/core/payroll"
	"github.com/zaylabs/erp/internal/core/recruitment"
	"github.com/zaylabs/erp/internal/core/user"
	"github.com/zaylabs/erp/internal/platform/config"
	pg "github.com/zaylabs/erp/internal/platform/db/postgres"
	"github.com/zaylabs/erp/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	userRepo := postgres.NewUserRepository(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	recruitmentRepo := postgres.NewRecruitmentRepository(dbPool)
	attendanceRepo := postgres.NewAttendanceRepository(dbPool)
	payrollRepo := postgres.NewPayrollRepository(dbPool)
	kpiRepo := postgres.NewKPIRepository(dbPool)

	userSvc := user.NewService(userRepo, nil)

	fileStore := storage.NewLocalStore(cfg.Storage.RootDir)
	notifier := notify.NewLogNotifier(userRepo)

	employeeSvc := employee.NewService(
		employeeRepo,
		fileStore,
		notifier,
		userSvc,
		nil,
		txManager,
		employee.OnboardingPolicy{
			RequiredDocumentTypes: cfg.Onboarding.RequiredDocumentTypes,
			SubmissionWindowDays:  cfg.Onboarding.SubmissionWindowDays,
			GraceDays:             cfg.Onboarding.GraceDays,
		},
	)
	recruitmentSvc := recruitment.NewService(recruitmentRepo, userSvc, employeeSvc, nil, txManager)
	attendanceSvc := attendance.NewService(attendanceRepo, nil)
	payrollSvc := payroll.NewService(payrollRepo, nil)
	kpiSvc := kpi.NewService(kpiRepo, nil)

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handlers := server.Handlers{
		Auth:        handler.NewAuthHandler(userSvc, tokens),
		Employee:    handler.NewEmployeeHandler(employeeSvc),
		Recruitment: handler.NewRecruitmentHandler(recruitmentSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Payroll:     handler.NewPayrollHandler(payrollSvc),
		KPI:         handler.NewKPIHandler(kpiSvc),
		Overview:    handler.NewOverviewHandler(employeeSvc, recruitmentSvc, attendanceRepo, payrollRepo, kpiRepo),
	}

	httpServer := server.New(cfg.Server.ListenAddr, tokens, handlers, cfg.CORS.AllowedOrigins)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
