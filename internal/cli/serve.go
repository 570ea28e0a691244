package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/observability/prom"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/server"
)

// Cache backends selectable with --cache.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheMongo = "mongo"
	cacheNone  = "none"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr    string
	backend string
	metrics bool

	redisAddr     string
	redisPassword string
	redisDB       int

	mongoURI        string
	mongoDatabase   string
	mongoCollection string
}

// serveCommand runs the HTTP host shell.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:            ":8080",
		backend:         cacheFile,
		metrics:         true,
		redisAddr:       "localhost:6379",
		mongoURI:        "mongodb://localhost:27017",
		mongoDatabase:   appName,
		mongoCollection: "layouts",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Long: `Serve conversions over HTTP.

The server accepts selections on POST /v1/convert and answers with the layout.
Results are cached in the chosen backend: the local file cache, Redis or
MongoDB. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.backend, "cache", opts.backend, "cache backend: file, redis, mongo, none")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics on /metrics")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", opts.redisAddr, "Redis address")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", opts.mongoURI, "MongoDB connection URI")
	cmd.Flags().StringVar(&opts.mongoDatabase, "mongo-db", opts.mongoDatabase, "MongoDB database")
	cmd.Flags().StringVar(&opts.mongoCollection, "mongo-collection", opts.mongoCollection, "MongoDB collection")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	backend, err := openCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(backend, nil, c.Logger)
	defer runner.Close()

	handlerOpts := []server.Option{server.WithLogger(c.Logger), server.WithConfig(cfg)}
	if opts.metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := prom.New(reg)
		observability.SetPipelineHooks(m)
		observability.SetCacheHooks(m)
		observability.SetHTTPHooks(m)
		defer observability.Reset()
		handlerOpts = append(handlerOpts, server.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.NewHandler(runner, handlerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr, "cache", opts.backend, "metrics", opts.metrics)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			c.Logger.Warn("graceful shutdown incomplete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

// openCache connects the selected cache backend.
func openCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	switch opts.backend {
	case cacheFile:
		return newCache(false)
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		rc := cache.NewRedisCache(opts.redisAddr, opts.redisPassword, opts.redisDB)
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("connect redis %s: %w", opts.redisAddr, err)
		}
		return rc, nil
	case cacheMongo:
		mc, err := cache.NewMongoCache(ctx, opts.mongoURI, opts.mongoDatabase, opts.mongoCollection)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return mc, nil
	default:
		return nil, fmt.Errorf("invalid cache backend: %q (must be file, redis, mongo or none)", opts.backend)
	}
}
