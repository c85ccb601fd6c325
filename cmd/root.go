// Package cmd defines and implements the CLI commands for the archivist executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/app"
	"github.com/JakeFAU/archivist/internal/bootstrap"
	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/logging"
	"github.com/JakeFAU/archivist/internal/storage"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetStorage() storage.BlobStore
	NewBootstrap() *bootstrap.Bootstrap
}

// newApp is the application factory. Tests replace it to inject fakes.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archivist",
		Short: "Renders the archive list of a page from its JSON item collection.",
		Long: `archivist runs the archive pipeline against an HTML page: it fetches the
archive items (with retry), validates them, applies the page query (search,
kind filter, sort, pagination) and reconciles the page's list markup. The
resulting page is written to the configured blob store.`,
		SilenceUsage: true,

		// Build the application and inject it before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and ARCHIVIST_* env vars apply)")
	cmd.AddCommand(newRenderCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger, logErr := logging.New(false)
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Fatal("Command execution failed", zap.Error(err))
	}
}
