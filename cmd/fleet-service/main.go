package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurpe/fleetops/internal/config"
	"github.com/nurpe/fleetops/internal/db"
	"github.com/nurpe/fleetops/internal/excel"
	httphandler "github.com/nurpe/fleetops/internal/http"
	"github.com/nurpe/fleetops/internal/logger"
	"github.com/nurpe/fleetops/internal/metrics"
	"github.com/nurpe/fleetops/internal/repository"
	"github.com/nurpe/fleetops/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	appMetrics := metrics.New()

	attributionRepo := repository.NewAttributionRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	expirationRepo := repository.NewExpirationRepository(database)

	attributionService := service.NewAttributionService(attributionRepo, appMetrics, log)
	vehicleService := service.NewVehicleService(vehicleRepo, attributionService, log)

	alertsCfg := cfg.Alerts
	alertService := service.NewAlertService([]service.Scanner{
		service.NewDocumentScanner(expirationRepo, alertsCfg.DocumentWindowDays, alertsCfg.LookbackDays),
		service.NewContractScanner(expirationRepo, alertsCfg.ContractWindowDays, alertsCfg.LookbackDays),
		service.NewVivierScanner(expirationRepo, alertsCfg.VivierWindowDays, alertsCfg.VivierMonthsAhead, alertsCfg.LookbackDays),
	}, alertsCfg.Thresholds, excel.NewGenerator(), appMetrics, log)

	handler := httphandler.NewHandler(attributionService, vehicleService, alertService, log)
	router := httphandler.NewRouter(handler, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting fleet service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server gracefully stopped")
}
