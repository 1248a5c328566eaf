package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/labelcheck/pkg/api"
	"github.com/hazyhaar/labelcheck/pkg/importer"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

type serveFlags struct {
	addr         string
	mcpStdio     bool
	checkSources bool
}

func newServeCmd(g *globals) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, or MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", "", "listen address (overrides config addr)")
	f.BoolVar(&flags.mcpStdio, "mcp-stdio", false, "serve MCP tools on stdin/stdout instead of HTTP")
	f.BoolVar(&flags.checkSources, "check-sources", false, "periodically check import source URLs")
	return cmd
}

func runServe(ctx context.Context, g *globals, flags serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := g.logger
	a, err := newApp(ctx, g.cfg, logger)
	if err != nil {
		return codeError(1, "%s", err)
	}
	defer a.Close()

	// Warm the cache so fetch problems show up at startup.
	m := a.engine.Matchers(ctx)
	logger.Info("reference data loaded",
		"source", g.cfg.Source,
		"allergens", len(m.Snapshot.Allergens),
		"gras", len(m.Snapshot.GRAS),
		"ndi", len(m.Snapshot.NDI),
		"odi", len(m.Snapshot.ODI),
	)

	svc := &api.Service{Checker: a.checker, Cache: a.cache, Logger: logger}

	// SIGHUP: drop cached corpora; the next request refetches.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go invalidateOnSignal(ctx, sighup, a.cache, logger)

	if flags.checkSources {
		sdb, err := importer.OpenSourceDB(g.cfg.DBPath)
		if err != nil {
			return codeError(1, "%s", err)
		}
		defer sdb.Close()
		if err := sdb.Seed(importer.All()); err != nil {
			return codeError(1, "%s", err)
		}
		go importer.NewSourceChecker(sdb, logger, g.cfg.CheckInterval).Start(ctx)
	}

	if flags.mcpStdio {
		srv := server.NewMCPServer("labelcheck", version, server.WithToolCapabilities(false))
		api.RegisterMCPTools(srv, svc)
		logger.Info("serving MCP tools on stdio")
		if err := server.ServeStdio(srv); err != nil {
			return codeError(1, "mcp stdio: %s", err)
		}
		return nil
	}

	addr := g.cfg.Addr
	if flags.addr != "" {
		addr = flags.addr
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("labelcheck listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return codeError(1, "server: %s", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// invalidateOnSignal drops every cached corpus each time sig fires, until ctx
// is done.
func invalidateOnSignal(ctx context.Context, sig <-chan os.Signal, cache *refdata.Cache, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			logger.Info("SIGHUP received, invalidating reference data")
			cache.Invalidate()
		}
	}
}
