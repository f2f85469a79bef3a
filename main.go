package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"feeledger_backend/internals/configs"
	database "feeledger_backend/internals/databases"
	"feeledger_backend/internals/features/finance/fee_ledgers/scheduler"
	helper "feeledger_backend/internals/helpers"
	"feeledger_backend/internals/helpers/reporting"
	middlewares "feeledger_backend/internals/middlewares"
	routes "feeledger_backend/internals/route"
	"feeledger_backend/internals/seeds"
)

var buildVersion = "dev"

func main() {
	configs.LoadEnv()
	reporting.Init(configs.RollbarToken, configs.AppEnv, buildVersion)
	defer reporting.Close()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromServiceError(c, err)
		},
	})

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	if configs.Conf.GetBool("DB_AUTO_MIGRATE") {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := database.RunMigrations(ctx, database.DB); err != nil {
			cancel()
			log.Fatalf("❌ Migrasi gagal: %v", err)
		}
		cancel()
	}
	if configs.Conf.GetBool("SEED_ON_START") {
		seeds.RunAllSeeds(context.Background(), database.DB)
	}

	middlewares.SetupMiddlewares(app)

	// ⏱ scheduler setelah DB siap
	var stopCron func() context.Context
	if configs.Conf.GetBool("PENALTY_CRON_ENABLED") {
		c, err := scheduler.StartPenaltyRecomputeCron(database.DB, configs.PenaltyRecomputeCron)
		if err != nil {
			log.Fatalf("[PENALTY-CRON] add cron gagal: %v", err)
		}
		stopCron = c.Stop
	}

	// ✅ Routes
	routes.SetupRoutes(app, database.DB)

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "8080")

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop cron → stop HTTP → tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if stopCron != nil {
		<-stopCron().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
