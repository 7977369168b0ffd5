package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/app"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/mailer"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/payment"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/db"
	"github.com/BUNNY-RANGU/gst-invoice-agent/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	validator, err := invoice.NewValidator(cfg.PhonePattern)
	if err != nil {
		logger.Error("build validator", slog.Any("error", err))
		os.Exit(1)
	}

	invoiceRepo := invoice.NewRepository(pool)
	invoiceService := invoice.NewService(validator, invoiceRepo, invoice.ServiceConfig{
		Seller: invoice.SellerProfile{
			Name:    cfg.SellerName,
			Address: cfg.SellerAddress,
			GSTIN:   cfg.SellerGSTIN,
			Email:   cfg.SellerEmail,
		},
		Series:  invoice.SeriesConfig{Prefix: cfg.InvoicePrefix, Pad: cfg.InvoicePad},
		DueDays: cfg.DueDays,
	})

	paymentRepo := payment.NewRepository(pool)
	paymentService := payment.NewService(paymentRepo)

	var sender mailer.Sender = mailer.Nop{}
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	}

	mailJob := jobs.NewMailJob(logger, sender)
	reminderJob := jobs.NewReminderJob(logger, invoiceService, paymentService, sender, cfg.SellerName)
	recurringJob := jobs.NewRecurringJob(logger, invoiceService)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypePaymentReminder, Handler: reminderJob.Handle},
			{Type: jobs.TaskTypeRecurringRun, Handler: recurringJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReminderCron, Task: jobs.NewPaymentReminderTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.RecurringCron, Task: jobs.NewRecurringRunTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
