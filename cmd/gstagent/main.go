package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/analytics"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/app"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/audit"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/payment"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/pdf"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/cache"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/db"
	"github.com/BUNNY-RANGU/gst-invoice-agent/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var jsonCache *cache.JSONCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, analytics cache disabled", slog.Any("error", err))
	} else {
		jsonCache = cache.NewJSONCache(redisClient, cfg.CacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validator, err := invoice.NewValidator(cfg.PhonePattern)
	if err != nil {
		logger.Error("build validator", slog.Any("error", err))
		os.Exit(1)
	}

	seller := invoice.SellerProfile{
		Name:    cfg.SellerName,
		Address: cfg.SellerAddress,
		GSTIN:   cfg.SellerGSTIN,
		Email:   cfg.SellerEmail,
	}

	auditor := audit.NewRepository(pool)

	invoiceRepo := invoice.NewRepository(pool)
	invoiceService := invoice.NewService(validator, invoiceRepo, invoice.ServiceConfig{
		Seller:  seller,
		Series:  invoice.SeriesConfig{Prefix: cfg.InvoicePrefix, Pad: cfg.InvoicePad},
		DueDays: cfg.DueDays,
	})

	pdfClient := pdf.NewClient(cfg.GotenbergURL)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	renderer, err := pdf.NewDocument(pdfClient, seller)
	if err != nil {
		logger.Error("build document renderer", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(jobsClient, cfg.SellerName)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("jobs inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	invoiceHandler := invoice.NewHandler(logger, invoiceService, auditor, renderer, notifier)

	paymentRepo := payment.NewRepository(pool)
	paymentService := payment.NewService(paymentRepo)
	paymentHandler := payment.NewHandler(logger, paymentService, auditor)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsService := analytics.NewService(analyticsRepo)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, jsonCache)

	auditHandler := audit.NewHandler(logger, auditor)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InvoiceHandler:   invoiceHandler,
		PaymentHandler:   paymentHandler,
		AnalyticsHandler: analyticsHandler,
		AuditHandler:     auditHandler,
		JobsHandler:      jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
