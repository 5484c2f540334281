package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Soheybfa/cities-api/pkg/catalog"
	"github.com/Soheybfa/cities-api/pkg/config"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Bulk load a city catalog into the store",
		Long: "Reads a catalog (JSON array or line-delimited JSON) and populates the " +
			"record store, the exact-name index and the prefix index in batches.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "cities.json"
			if len(args) == 1 {
				path = args[0]
			}
			return runLoad(cmd.Context(), path)
		},
	}
	return cmd
}

func runLoad(ctx context.Context, path string) error {
	cfg, err := config.Init(flagConfig)
	if err != nil {
		return err
	}

	kv, err := openStore(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer kv.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	loader := catalog.NewLoader(kv, cfg.Loader.BatchSize)
	loaded, err := loader.Load(ctx, f)
	if err != nil {
		return err
	}

	if totalKeys, err := kv.DBSize(ctx); err == nil {
		log.Infof("load complete: %d records, %d keys total", loaded, totalKeys)
	}
	return nil
}
