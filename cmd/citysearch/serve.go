package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Soheybfa/cities-api/pkg/catalog"
	"github.com/Soheybfa/cities-api/pkg/config"
	"github.com/Soheybfa/cities-api/pkg/query"
	"github.com/Soheybfa/cities-api/pkg/server"
	"github.com/Soheybfa/cities-api/pkg/store"
)

func newServeCmd() *cobra.Command {
	var (
		memory   bool
		ipc      bool
		loadFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API",
		Long:  "Serves the search API over HTTP, or over MessagePack stdio IPC with --ipc.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), memory, ipc, loadFile)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "Use an in-process store instead of Redis")
	cmd.Flags().BoolVar(&ipc, "ipc", false, "Serve MessagePack IPC on stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&loadFile, "load", "", "Bulk load this catalog file before serving (required with --memory)")

	return cmd
}

func runServe(ctx context.Context, memory, ipc bool, loadFile string) error {
	cfg, err := config.Init(flagConfig)
	if err != nil {
		return err
	}

	kv, err := openStore(ctx, cfg, memory)
	if err != nil {
		return err
	}
	defer kv.Close()

	engine := query.NewEngine(kv,
		query.WithHotCache(cfg.Server.HotCacheSize),
		query.WithMaxLimit(cfg.Server.MaxLimit),
	)

	if loadFile != "" {
		if err := loadCatalog(ctx, kv, engine, cfg, loadFile); err != nil {
			return err
		}
	}

	if ipc {
		srv := server.NewIPC(engine, kv, os.Stdin, os.Stdout)
		return srv.Start(ctx)
	}

	handler := server.NewHTTPHandler(engine, kv, cfg.Server)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// loadCatalog runs an in-process bulk load, wiring the engine's hot cache
// invalidation into the loader.
func loadCatalog(ctx context.Context, kv store.KV, engine *query.Engine, cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	loader := catalog.NewLoader(kv, cfg.Loader.BatchSize)
	if cache := engine.Cache(); cache != nil {
		loader.AfterFlush(cache.Invalidate)
	}
	_, err = loader.Load(ctx, f)
	return err
}

// openStore picks the store adapter: Redis by default, in-process with
// --memory.
func openStore(ctx context.Context, cfg *config.Config, memory bool) (store.KV, error) {
	if memory {
		log.Debug("using in-process store")
		return store.NewMemoryStore(), nil
	}
	return store.Dial(ctx, store.DialOptions{
		Addr:           cfg.Redis.Addr,
		DB:             cfg.Redis.DB,
		PoolSize:       cfg.Redis.PoolSize,
		ConnectTimeout: cfg.Redis.ConnectTimeout(),
		MaxRetries:     cfg.Redis.MaxRetries,
		RetryDelay:     cfg.Redis.RetryDelay(),
	})
}
