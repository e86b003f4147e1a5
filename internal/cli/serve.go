package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpad/internal/config"
	"github.com/matzehuels/graphpad/internal/server"
	"github.com/matzehuels/graphpad/pkg/board"
	"github.com/matzehuels/graphpad/pkg/cache"
	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath string // path to a TOML config file, empty uses defaults
	addr       string // listen address override
	cacheName  string // cache backend override: memory, redis, none
}

// newServeCmd creates the serve command that runs the graphpad HTTP server.
//
// Configuration is loaded from --config if given, otherwise defaults apply.
// The --addr and --cache flags override the corresponding config values.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the graphpad HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.cacheName, "cache", "", "cache backend: memory (default), redis, none")

	return cmd
}

// runServe wires the board, renderer, cache, and tracer together and serves
// HTTP until the context is cancelled.
func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debugf("Loaded config from %s", opts.configPath)
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.cacheName != "" {
		cfg.Cache.Backend = opts.cacheName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := newCacheBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Debugf("Cache backend: %s", cfg.Cache.Backend)

	tracer := trace.New(logger, cfg.TracerConfig())

	renderer := engine.NewRenderer(tracer)
	defer renderer.Close()
	memoized := engine.NewMemoizer(renderer, store, cfg.Cache.TTL.Duration(), tracer)

	b := board.New(tracer)
	srv := server.New(b, memoized, tracer, logger)

	logger.Infof("Serving on %s", cfg.Server.Addr)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// newCacheBackend builds the render cache named by the config.
func newCacheBackend(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	case config.CacheNone:
		return cache.NewNullCache(), nil
	default:
		return cache.NewMemoryCache(), nil
	}
}
