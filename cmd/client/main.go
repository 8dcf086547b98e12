// Package main runs the BugBoard tracker client: an interactive shell over
// the session, the local store and the sync controllers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bugboard/bugboard/internal/client/app"
	"github.com/bugboard/bugboard/internal/client/shell"
	"github.com/bugboard/bugboard/internal/config"
	"github.com/bugboard/bugboard/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	version   string
	buildDate string
)

type options struct {
	envFile  string
	baseURL  string
	caFile   string
	logLevel string
}

// NewRootCmd returns the client command tree. Without a subcommand the
// interactive shell starts.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "bugboard",
		Short:        "BugBoard issue tracker client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive shell
  bugboard

  # Talk to another backend
  bugboard --url https://tracker.example.com/api`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with BUGBOARD_* settings")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", "", "backend base URL (overrides BUGBOARD_URL)")
	cmd.PersistentFlags().StringVar(&opts.caFile, "ca", "", "PEM bundle trusted for TLS (overrides BUGBOARD_CA_FILE)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides BUGBOARD_LOG_LEVEL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show build version and date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "BugBoard Client\nVersion: %s\nBuild Date: %s\n",
				orDefault(version, "N/A"), orDefault(buildDate, "N/A"))
		},
	})

	return cmd
}

// loadConfig merges the environment with the command-line overrides.
func loadConfig(opts *options) (config.Client, error) {
	cfg, err := config.LoadClient(opts.envFile)
	if err != nil {
		return config.Client{}, err
	}
	cfg.BaseURL = orDefault(opts.baseURL, cfg.BaseURL)
	cfg.CAFile = orDefault(opts.caFile, cfg.CAFile)
	cfg.LogLevel = orDefault(opts.logLevel, cfg.LogLevel)
	return cfg, nil
}

func runShell(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logger.New()
	if err := log.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Log.Sync() }()

	errOut := cmd.ErrOrStderr()
	client, err := app.New(cfg, log.Log, func(op string, err error) {
		fmt.Fprintf(errOut, "\n%s failed: %v\n", op, err)
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := client.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return shell.New(client, cmd.InOrStdin(), cmd.OutOrStdout()).Run(gctx)
	})

	err = g.Wait()
	log.Log.Debug("client stopped", zap.Error(err))
	return err
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// orDefault returns the first of its arguments that is not the empty string,
// matching cmp.Or (Go 1.22+) for the Go 1.21 toolchain.
func orDefault(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
