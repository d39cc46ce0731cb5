package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mdung/RentMaster-sub002/internal/api"
	"github.com/mdung/RentMaster-sub002/internal/auth"
	"github.com/mdung/RentMaster-sub002/internal/config"
	"github.com/mdung/RentMaster-sub002/internal/database"
	"github.com/mdung/RentMaster-sub002/internal/invoice"
	"github.com/mdung/RentMaster-sub002/internal/mail"
	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/notify"
	"github.com/mdung/RentMaster-sub002/internal/report"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
	"github.com/mdung/RentMaster-sub002/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Logger = logger

	cfg := config.LoadConfig()
	auth.SetSecret(cfg.Auth.JWTSecret)

	if err := database.Initialize(cfg.Database.Path); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	db := database.GetDB()
	st := store.New(db)

	if err := ensureAdminUser(db); err != nil {
		logger.Warn().Err(err).Msg("failed to ensure admin user")
	}

	var invoiceMailer invoice.Sender
	var reportMailer report.Sender
	if cfg.Email.SMTPHost != "" {
		mailer := mail.NewMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.Password)
		invoiceMailer = mailer
		reportMailer = mailer
	} else {
		logger.Warn().Msg("no SMTP host configured, report dispatch and invoice auto-send are disabled")
	}

	var notifier scheduler.Notifier
	if cfg.Slack.Token != "" {
		notifier = notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel, logger)
	}

	producers := map[models.ScheduleKind]scheduler.Producer{
		models.KindInvoice: invoice.NewGenerator(db, invoiceMailer, logger),
		models.KindReport:  report.NewGenerator(db, reportMailer, logger),
	}

	inflight := scheduler.NewInflight()
	coordinator := scheduler.NewCoordinator(st, producers, inflight, cfg.Scheduler.ProduceTimeout, notifier, logger)
	lifecycle := scheduler.NewLifecycle(st, inflight, logger)

	sweeper := scheduler.NewSweeper(st, coordinator, cfg.Scheduler.SweepInterval, int64(cfg.Scheduler.MaxConcurrent), logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)
	defer sweeper.Stop()

	server := api.NewServer(st, coordinator, lifecycle)
	if err := server.Start(cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

// ensureAdminUser creates the default admin account when the user table is
// empty, so a fresh install can log in.
func ensureAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.User{
		Username: "admin",
		Role:     models.RoleAdmin,
		Email:    "admin@rentmaster.local",
		IsActive: true,
	}
	if err := admin.SetPassword("admin"); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Warn().Msg("created default admin user, change its password")
	return nil
}
