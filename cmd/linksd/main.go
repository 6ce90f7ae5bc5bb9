// Package main is the entrypoint for the links server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/rpcapi"
	"github.com/janm-dev/links-go/internal/store/auditstore"
	"github.com/janm-dev/links-go/internal/supervisor"

	// Register store drivers
	_ "github.com/janm-dev/links-go/internal/store/kvstore"
	_ "github.com/janm-dev/links-go/internal/store/memstore"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML, YAML, or JSON config file (optional)")
	watcherDebounce := flag.Duration("watcher-debounce", time.Second, "How long to wait for config file events to settle before reloading")
	watcherTimeout := flag.Duration("watcher-timeout", 10*time.Second, "Longest interval between reload attempts, file events or not")
	exampleRedirect := flag.Bool("example-redirect", false, "Seed a maximum-value id and the vanity path \"example\" redirecting to https://example.com/")
	dataDir := flag.String("data-dir", "", "Directory for the RPC audit log database (disabled if empty)")

	logLevel := flag.String("log-level", "", "Minimum log severity: trace, debug, verbose, info, warn, error (overrides config)")
	token := flag.String("token", "", "RPC auth token (overrides config)")
	listeners := flag.String("listeners", "", "JSON array of listener addresses, e.g. [\"http::80\",\"https::443\"] (overrides config)")
	statistics := flag.String("statistics", "", "JSON array of statistic categories (overrides config)")
	defaultCertificate := flag.String("default-certificate", "", "JSON certificate source object used when no certificate matches a requested SNI (overrides config)")
	certificates := flag.String("certificates", "", "JSON array of certificate source objects (overrides config)")
	hsts := flag.String("hsts", "", "HSTS policy: disable, enable, or preload (overrides config)")
	hstsMaxAge := flag.String("hsts-max-age", "", "HSTS max-age in seconds (overrides config)")
	httpsRedirect := flag.String("https-redirect", "", "Redirect http to https: true or false (overrides config)")
	sendAltSvc := flag.String("send-alt-svc", "", "Send Alt-Svc headers advertising https: true or false (overrides config)")
	sendServer := flag.String("send-server", "", "Send a Server response header: true or false (overrides config)")
	sendCSP := flag.String("send-csp", "", "Send a restrictive Content-Security-Policy header: true or false (overrides config)")
	store := flag.String("store", "", "Store driver name, e.g. memory or redis (overrides config)")
	storeConfig := flag.String("store-config", "", "JSON object of string store driver options (overrides config)")
	flag.Parse()

	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	loader := config.LoaderOptions{
		ConfigPath: *configPath,
		FlagOverrides: config.FlagOverrides{
			LogLevel:           strFlag(*logLevel),
			Token:              strFlag(*token),
			Listeners:          strFlag(*listeners),
			Statistics:         strFlag(*statistics),
			DefaultCertificate: strFlag(*defaultCertificate),
			Certificates:       strFlag(*certificates),
			HSTS:               strFlag(*hsts),
			HSTSMaxAge:         strFlag(*hstsMaxAge),
			HTTPSRedirect:      strFlag(*httpsRedirect),
			SendAltSvc:         strFlag(*sendAltSvc),
			SendServer:         strFlag(*sendServer),
			SendCSP:            strFlag(*sendCSP),
			Store:              strFlag(*store),
			StoreConfig:        strFlag(*storeConfig),
		},
		Logger: bootstrapLogger,
	}

	var audit *auditstore.Store
	if *dataDir != "" {
		if err := os.MkdirAll(*dataDir, 0700); err != nil {
			bootstrapLogger.Error("failed to create data directory", "path", *dataDir, "error", err)
			os.Exit(1)
		}
		a, err := auditstore.Open(context.Background(), *dataDir)
		if err != nil {
			bootstrapLogger.Error("failed to open audit log", "error", err)
			os.Exit(1)
		}
		audit = a
		defer audit.Close()
	}

	rpcService := &rpcapi.Service{}
	if audit != nil {
		rpcService.Audit = audit
	}

	sup, err := supervisor.New(context.Background(), supervisor.Options{
		Loader:          loader,
		WatcherDebounce: *watcherDebounce,
		WatcherTimeout:  *watcherTimeout,
		RPCService:      rpcService,
		Logger:          bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to start supervisor", "error", err)
		os.Exit(1)
	}

	level := logLevelToSlog(sup.Config().LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	rpcService.Logger = logger

	logger.Info("effective configuration", "config", sup.Config().Redacted())

	if *exampleRedirect {
		seedExampleRedirect(context.Background(), sup, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	logger.Info("server started, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := sup.Close(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// strFlag turns an empty stdlib flag.String result into nil, since
// [config.FlagOverrides] uses a nil pointer to mean "flag not given" and
// an empty string to mean "flag given as empty".
func strFlag(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func logLevelToSlog(l config.LogLevel) slog.Level {
	switch l {
	case config.LogTrace:
		return slog.LevelDebug - 4
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogVerbose:
		return slog.LevelDebug + 2
	case config.LogInfo:
		return slog.LevelInfo
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seedExampleRedirect sets up the maximum-value id and the vanity path
// "example" to redirect to https://example.com/, for ad-hoc testing of a
// freshly started server without having to call the RPC API first.
func seedExampleRedirect(ctx context.Context, sup *supervisor.Supervisor, logger *slog.Logger) {
	link, err := normalized.NewLink("https://example.com/")
	if err != nil {
		logger.Error("failed to build example redirect link", "error", err)
		return
	}

	id := linkid.MaxId()
	backend := sup.Store().Get()

	if _, _, err := backend.SetRedirect(ctx, id, link); err != nil {
		logger.Error("failed to seed example redirect", "error", err)
		return
	}
	if _, _, err := backend.SetVanity(ctx, normalized.New("example"), id); err != nil {
		logger.Error("failed to seed example vanity path", "error", err)
		return
	}

	logger.Info("seeded example redirect", "id", id.String(), "vanity", "example", "destination", link.String())
}
