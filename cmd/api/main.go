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

	httpadp "lending-backend/internal/adapter/http"
	"lending-backend/internal/adapter/gateway/card"
	"lending-backend/internal/adapter/gateway/crypto"
	"lending-backend/internal/adapter/gateway/email"
	"lending-backend/internal/adapter/gateway/fx"
	"lending-backend/internal/adapter/gateway/llm"
	"lending-backend/internal/adapter/gateway/sms"
	"lending-backend/internal/adapter/repository/mysql"
	"lending-backend/internal/config"
	"lending-backend/internal/infrastructure/cache"
	"lending-backend/internal/infrastructure/db"
	"lending-backend/internal/infrastructure/events"
	"lending-backend/internal/infrastructure/logger"
	"lending-backend/internal/infrastructure/realtime"
	"lending-backend/internal/infrastructure/scheduler"
	ucAccount "lending-backend/internal/usecase/account"
	ucApproval "lending-backend/internal/usecase/approval"
	ucAudit "lending-backend/internal/usecase/audit"
	ucAuth "lending-backend/internal/usecase/auth"
	ucDashboard "lending-backend/internal/usecase/dashboard"
	ucDisb "lending-backend/internal/usecase/disbursement"
	ucChat "lending-backend/internal/usecase/livechat"
	ucLoan "lending-backend/internal/usecase/loan"
	ucNotification "lending-backend/internal/usecase/notification"
	ucPayment "lending-backend/internal/usecase/payment"
	ucReferral "lending-backend/internal/usecase/referral"
	ucReminder "lending-backend/internal/usecase/reminder"
	ucSetting "lending-backend/internal/usecase/setting"
	ucSupport "lending-backend/internal/usecase/support"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lending-api",
		Short:         "Consumer lending backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel)
			gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		adminEmail    string
		adminPassword string
		adminName     string
		file          string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write default settings and optionally create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel)
			gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.SettingsSeedFile
			}
			return seed(cmd.Context(), gdb, log, file, adminEmail, adminPassword, adminName)
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "Create this admin account if it does not exist")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for --admin-email")
	cmd.Flags().StringVar(&adminName, "admin-name", "Administrator", "Full name for --admin-email")
	cmd.Flags().StringVar(&file, "settings", "", "YAML settings overrides (defaults to SETTINGS_SEED_FILE)")
	return cmd
}

func seed(ctx context.Context, gdb *gorm.DB, log *logrus.Logger, file, adminEmail, adminPassword, adminName string) error {
	var overrides map[string]string
	if file != "" {
		var err error
		if overrides, err = ucSetting.LoadSeedFile(file); err != nil {
			return fmt.Errorf("settings file: %w", err)
		}
	}
	settings := ucSetting.NewUsecase(mysql.NewSettingRepository(gdb), nil)
	n, err := settings.Seed(ctx, overrides)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	log.WithField("written", n).Info("settings seeded")

	if adminEmail == "" {
		return nil
	}
	if len(adminPassword) < 8 {
		return errors.New("--admin-password must be at least 8 characters")
	}
	auth := ucAuth.NewUsecase(mysql.NewUserRepository(gdb), mysql.NewGormUoW(gdb), "", 0)
	admin, err := auth.CreateAdmin(ctx, adminEmail, adminPassword, adminName)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.WithField("user", admin.UserID).Info("admin ready")
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel)

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		pub = nc
	}
	defer pub.Close()

	// repositories
	tx := mysql.NewGormUoW(gdb)
	users := mysql.NewUserRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	payments := mysql.NewPaymentRepository(gdb)
	disbursements := mysql.NewDisbursementRepository(gdb)
	referrals := mysql.NewReferralRepository(gdb)
	supportRepo := mysql.NewSupportRepository(gdb)
	chatRepo := mysql.NewLiveChatRepository(gdb)

	// outbound channels; unset config disables the channel
	var mail ucNotification.EmailSender = email.NewLogSender(log)
	if cfg.SMTPEnabled() {
		mail = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SenderEmail, log)
	}
	var text ucNotification.SMSSender
	if cfg.SMSBaseURL != "" {
		text = sms.New(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSender)
	}
	var assistant ucChat.Assistant
	if cfg.OpenAIKey != "" {
		assistant = llm.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	} else {
		log.Warn("OPENAI_API_KEY not set, live chat goes straight to agents")
	}

	hub := realtime.NewHub(32, log)
	settings := ucSetting.NewUsecase(mysql.NewSettingRepository(gdb), tx)
	notify := ucNotification.NewUsecase(mysql.NewNotificationRepository(gdb), users, mail, text, pub, log)
	authUC := ucAuth.NewUsecase(users, tx, cfg.JWTSecret, cfg.JWTTTL)
	paymentUC := ucPayment.NewUsecase(ucPayment.Deps{
		Payments: payments,
		Loans:    loans,
		UoW:      tx,
		Settings: settings,
		Notifier: notify,
		Card:     card.New(cfg.CardGatewayURL, cfg.CardGatewayKey, cfg.CardWebhookSecret),
		Rates:    crypto.NewRates(cfg.CryptoRatesURL, cache.NewJSON(rdb, "rates:"), cfg.RateCacheTTL(), log),
		FX:       fx.NewECB(cfg.FXRatesURL, log),
		Explorer: crypto.NewExplorer(cfg.CryptoExplorerURL, cfg.CryptoExplorerKey, nil),
		Log:      log,
	})

	sched := scheduler.New(log)
	reminders := ucReminder.NewUsecase(loans, tx, settings, notify, paymentUC, log)
	if err := reminders.Register(sched, cfg.FeeReminderCron, cfg.CryptoExpiryCron); err != nil {
		return err
	}

	e := httpadp.NewRouter(httpadp.Deps{
		Auth:          authUC,
		Account:       ucAccount.NewUsecase(users, tx),
		Loans:         ucLoan.NewUsecase(loans, tx, settings, notify),
		Approvals:     ucApproval.NewUsecase(tx, settings, notify),
		Payments:      paymentUC,
		Disbursements: ucDisb.NewUsecase(disbursements, loans, tx, settings, notify),
		Referrals:     ucReferral.NewUsecase(referrals, users, tx),
		Support:       ucSupport.NewUsecase(supportRepo, tx, notify),
		Chat:          ucChat.NewUsecase(chatRepo, assistant, hub, log),
		Notifications: notify,
		Settings:      settings,
		Audit:         ucAudit.NewUsecase(mysql.NewAuditRepository(gdb)),
		Dashboard:     ucDashboard.NewUsecase(loans, payments, disbursements, supportRepo, chatRepo),

		Checks: []httpadp.Check{
			{Name: "mysql", Ping: sqlDB.PingContext},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Hub:            hub,
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		RateLimitRPS:   float64(cfg.RateLimitRPS),
		RateLimitBurst: cfg.RateLimitBurst,
		Log:            log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	defer sched.Stop()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
