package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaylabs/erp/internal/adapters/notify"
	"github.com/zaylabs/erp/internal/adapters/repository/postgres"
	"github.com/zaylabs/erp/internal/adapters/storage"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/platform/config"
	pg "github.com/zaylabs/erp/internal/platform/db/postgres"
)

// ロック掃引をコマンドラインから一回だけ実行します。cron などの
// スケジューラからの定期実行を想定しています。
func main() {
	var todayFlag string
	flag.StringVar(&todayFlag, "today", "", "sweep reference date (YYYY-MM-DD, defaults to current date)")
	flag.Parse()

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

	in := employee.LockSweepInput{RequiredTypes: cfg.Onboarding.RequiredDocumentTypes}
	if todayFlag != "" {
		today, err := time.Parse("2006-01-02", todayFlag)
		if err != nil {
			log.Fatalf("invalid -today value %q: %v", todayFlag, err)
		}
		in.Today = today
	}

	ctx := context.Background()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	userRepo := postgres.NewUserRepository(dbPool)

	svc := employee.NewService(
		employeeRepo,
		storage.NewLocalStore(cfg.Storage.RootDir),
		notify.NewLogNotifier(userRepo),
		nil,
		nil,
		pg.NewTransactionManager(dbPool),
		employee.OnboardingPolicy{
			RequiredDocumentTypes: cfg.Onboarding.RequiredDocumentTypes,
			SubmissionWindowDays:  cfg.Onboarding.SubmissionWindowDays,
			GraceDays:             cfg.Onboarding.GraceDays,
		},
	)

	result, err := svc.RunLockSweep(ctx, in)
	if err != nil {
		log.Fatalf("lock sweep failed: %v", err)
	}

	log.Printf("lock sweep finished: scanned=%d locked=%d failed=%d", result.Scanned, result.Locked, result.Failed)
}
