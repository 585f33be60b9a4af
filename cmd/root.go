package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"localfund/internal/api"
	"localfund/internal/checkout"
	"localfund/internal/config"
	"localfund/internal/db"
	"localfund/internal/fixtures"
	"localfund/internal/location"
	"localfund/internal/logging"
	"localfund/internal/model"
	"localfund/internal/payment"
	"localfund/internal/search"
	"localfund/internal/session"
	"localfund/internal/share"
	"localfund/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

// version is set at build time via -ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "localfund",
	Short: "Fund neighbourhood restaurants from your terminal",
	Long: `localfund browses nearby restaurants, regional specialties and the
community board of a localfund server, and pays for fundings and orders.

Run without arguments to start the interactive interface.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.localfund/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (default ~/.localfund/localfund.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(setupCmd, fixturesCmd, receiptCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads .env files, the config file and the flag overrides.
func loadConfig() (*config.Config, string, error) {
	// Missing files are fine, and set variables are never overridden.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	return cfg, path, nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	database, err := db.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if shouldRunOnboarding(cfg) {
		if err := runOnboarding(cfg, path); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File, Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	backendURL := cfg.Backend.BaseURL
	gatewayURL := cfg.Payment.GatewayURL
	kakaoURL, kakaoKey := cfg.Kakao.BaseURL, cfg.Kakao.APIKey
	if cfg.IsFixtures() {
		srv, err := fixtures.New(fixtures.Config{Secret: cfg.Fixtures.JWTSecret, Logger: logger})
		if err != nil {
			return err
		}
		running, err := srv.Start("127.0.0.1:0")
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := running.Close(closeCtx); err != nil {
				logger.Warn("failed to stop fixture backend", zap.Error(err))
			}
		}()
		backendURL, gatewayURL, kakaoURL = running.URL, running.URL, running.URL
		if kakaoKey == "" {
			kakaoKey = "fixtures"
		}
	}
	if gatewayURL == "" {
		// The backend relays payments when no separate gateway is configured.
		gatewayURL = backendURL
	}

	reportUnrecorded(database, logger)

	store := session.NewStore(database)
	var program *tea.Program
	client := api.New(api.Config{
		BaseURL:       backendURL,
		Timeout:       cfg.BackendTimeout(),
		MemberTimeout: cfg.MemberTimeout(),
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
		Session:       store,
		Logger:        logger.Named("api"),
		OnUnauthorized: func() {
			if program != nil {
				program.Send(model.UnauthorizedMsg{})
			}
		},
	})

	bus := location.NewBus(0, logger.Named("location"))
	app := ui.New(ui.Deps{
		Config:    cfg,
		Client:    client,
		Session:   store,
		Payments:  payment.NewGateway(gatewayURL, cfg.PaymentTimeout(), logger.Named("payment")),
		Journal:   checkout.DBJournal{DB: database},
		Kakao:     search.NewKakaoClient(kakaoKey, kakaoURL),
		Bus:       bus,
		Sharer:    share.New(os.Stderr),
		Previewer: ui.NewImagePreviewer(ui.DetectTerminalCapabilities(), 32),
		Logger:    logger.Named("ui"),
		PrefsPath: ui.DefaultPrefsPath(),
	})

	program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		if err := bus.Serve(ctx, ui.ApplySelection(store, program.Send)); err != nil && ctx.Err() == nil {
			logger.Error("location bus stopped", zap.Error(err))
		}
	}()

	logger.Info("starting localfund",
		zap.String("version", version),
		zap.String("mode", cfg.Backend.Mode),
		zap.String("backend", backendURL))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// reportUnrecorded logs payments that were approved but never reached the
// backend, so they can be reconciled by hand.
func reportUnrecorded(database *sql.DB, logger *zap.Logger) {
	attempts, err := db.ListUnrecordedAttempts(database)
	if err != nil {
		logger.Warn("failed to list unrecorded payments", zap.Error(err))
		return
	}
	for _, a := range attempts {
		logger.Warn("unrecorded payment",
			zap.String("merchant_uid", a.MerchantUID),
			zap.String("imp_uid", a.ImpUID),
			zap.String("kind", a.Kind),
			zap.Int64("target_id", a.TargetID),
			zap.Int64("amount", a.Amount))
	}
}
