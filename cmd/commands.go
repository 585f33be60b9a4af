package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"localfund/internal/api"
	"localfund/internal/fixtures"
	"localfund/internal/logging"
	"localfund/internal/receipt"
	"localfund/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Re-run the first-run setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		if err := runOnboarding(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", path)
		return nil
	},
}

var fixturesAddr string

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Work with the built-in fixture backend",
}

var fixturesServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fixture backend over HTTP",
	Long: `Serves the in-memory fixture backend, including the payment relay and
a Kakao keyword search stand-in. Point backend.base_url, payment.gateway_url
and kakao.base_url at it to run the app against fixed data.

Accounts: admin@localfund.kr, user@localfund.kr, owner@localfund.kr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		// No TUI here, so log to stderr.
		logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Verbose: verbose})
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		addr := fixturesAddr
		if addr == "" {
			addr = cfg.Fixtures.Addr
		}
		srv, err := fixtures.New(fixtures.Config{Secret: cfg.Fixtures.JWTSecret, Logger: logger})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("serving fixtures", zap.String("addr", addr))
		return srv.Serve(ctx, addr)
	},
}

var receiptOut string

var receiptCmd = &cobra.Command{
	Use:   "receipt <funding-id>",
	Short: "Write the QR receipt of one of your fundings as a PNG",
	Long: `Fetches a funding record of the logged-in member and writes its QR
receipt. Log in from the interactive interface first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid funding id %q", args[0])
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsFixtures() {
			return fmt.Errorf("receipts need a running backend; start one with `localfund fixtures serve` and set backend.base_url")
		}
		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		store := session.NewStore(database)
		member, ok := store.Member()
		if !ok {
			return fmt.Errorf("not logged in")
		}
		client := api.New(api.Config{
			BaseURL:       cfg.Backend.BaseURL,
			Timeout:       cfg.BackendTimeout(),
			MemberTimeout: cfg.MemberTimeout(),
			Session:       store,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.BackendTimeout())
		defer cancel()
		funding, err := client.Funding(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load funding %d: %w", id, err)
		}
		if funding.MemberID != member.Email {
			return fmt.Errorf("funding %d belongs to another member", id)
		}

		out := receiptOut
		if out == "" {
			out = fmt.Sprintf("localfund-receipt-%d.png", id)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
		}
		if err := receipt.WriteFile(funding, out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), receipt.Terminal(funding))
		fmt.Fprintf(cmd.OutOrStdout(), "Receipt written to %s\n", out)
		return nil
	},
}

func init() {
	fixturesServeCmd.Flags().StringVar(&fixturesAddr, "addr", "", "listen address (default fixtures.addr)")
	fixturesCmd.AddCommand(fixturesServeCmd)

	receiptCmd.Flags().StringVarP(&receiptOut, "output", "o", "", "PNG file to write (default localfund-receipt-<id>.png)")
}
