/*
Package main provides the entry point for the citysearch service.

citysearch answers prefix-search and exact-lookup queries over a static
city catalog. The catalog is bulk loaded once into a key-value store where
every prefix of every normalized name is precomputed into its own
membership set, so query-time lookups are single key fetches regardless of
catalog size.

Load a catalog, then serve:

	citysearch load cities.json
	citysearch serve

Development without Redis uses the in-process store; load and serve then
have to share one process:

	citysearch serve --memory --load cities.json

Configuration lives in a TOML file (see --config); REDIS_HOST/REDIS_PORT
environment variables override the store address for container setups.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var (
	flagConfig string
	flagDebug  bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "citysearch",
		Short:   "Prefix search and autocomplete over a city catalog",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
			log.SetReportTimestamp(true)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newLoadCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
