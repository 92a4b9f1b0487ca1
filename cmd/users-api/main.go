// Command users-api runs the users HTTP service.
//
//	users-api serve     # migrate (outside local) and serve HTTP
//	users-api migrate   # bring the schema up to date and exit
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/go-users-api/internal/config"
	"github.com/deppfellow/go-users-api/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "users-api",
		Short:         "CRUD HTTP API for users",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

// bootstrap loads the configuration and builds the process logger. The
// caller owns the returned LoggerService and must shut it down.
func bootstrap() (*config.Config, *zerolog.Logger, *logger.LoggerService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return cfg, &log, loggerService, nil
}
