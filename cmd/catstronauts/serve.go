package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	config "github.com/hanpama/catstronauts/internal/config"
	datasources "github.com/hanpama/catstronauts/internal/datasources"
	eventbus "github.com/hanpama/catstronauts/internal/eventbus"
	executor "github.com/hanpama/catstronauts/internal/executor"
	graph "github.com/hanpama/catstronauts/internal/graph"
	introspection "github.com/hanpama/catstronauts/internal/introspection"
	log "github.com/hanpama/catstronauts/internal/log"
	otel "github.com/hanpama/catstronauts/internal/otel"
	resolver "github.com/hanpama/catstronauts/internal/resolver"
	server "github.com/hanpama/catstronauts/internal/server"
	trackapi "github.com/hanpama/catstronauts/internal/trackapi"
)

func cmdServe(args []string, stderr io.Writer) error {
	env, err := config.OSEnv(".env")
	if err != nil {
		return err
	}
	cfg, err := config.Load(args, env)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(cfg.Log.Verbosity)
	eventbus.Use(eventbus.New())
	defer log.Subscribe(logger)()

	shutdown, err := otel.Setup(ctx, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	api, closeAPI, err := openTrackAPI(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeAPI(context.Background()) }()

	h, err := newHandler(cfg, api, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, h)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", "addr", cfg.Server.Addr, "path", cfg.Server.Path, "backend", cfg.TrackAPI.Backend)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openTrackAPI connects the configured backend. The returned func releases
// it.
func openTrackAPI(ctx context.Context, cfg *config.Config) (trackapi.TrackAPI, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch cfg.TrackAPI.Backend {
	case config.BackendREST:
		c, err := trackapi.NewClient(cfg.TrackAPI.URL, trackapi.WithTimeout(cfg.TrackAPI.Timeout), trackapi.WithForwardedMetadata())
		if err != nil {
			return nil, nil, err
		}
		return c, noop, nil
	case config.BackendMongo:
		m, disconnect, err := trackapi.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return m, disconnect, nil
	case config.BackendMemory:
		if cfg.TrackAPI.Fixtures == "" {
			return trackapi.NewMemory(nil, nil), noop, nil
		}
		m, err := trackapi.LoadMemory(cfg.TrackAPI.Fixtures)
		if err != nil {
			return nil, nil, err
		}
		return m, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown trackapi backend %q", cfg.TrackAPI.Backend)
}

// newHandler builds the GraphQL handler serving api.
func newHandler(cfg *config.Config, api trackapi.TrackAPI, logger logr.Logger) (http.Handler, error) {
	ds, err := datasources.New(api)
	if err != nil {
		return nil, err
	}
	s, rt, err := graph.NewRuntime(resolver.WithConcurrency(cfg.GraphQL.Concurrency))
	if err != nil {
		return nil, err
	}

	var runtime executor.Runtime = rt
	if cfg.GraphQL.Introspection {
		runtime = introspection.Wrap(runtime, s)
	} else {
		runtime = introspection.Disabled(runtime, s)
	}

	sopts := []server.Option{
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithContext(func(ctx context.Context, r *http.Request) (context.Context, error) {
			ctx = log.WithLogger(ctx, logger)
			return datasources.NewContext(ctx, ds), nil
		}),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.Server.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.Server.Timeout))
	}
	if cfg.Server.MaxBodyBytes > 0 {
		sopts = append(sopts, server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if len(cfg.Server.MetadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(cfg.Server.MetadataHeaders...))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h, err := server.New(runtime, s, sopts...)
	if err != nil {
		return nil, fmt.Errorf("server init: %w", err)
	}
	return h, nil
}
