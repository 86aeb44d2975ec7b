package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"vaultgate/app/auth"
	"vaultgate/app/config"
	"vaultgate/app/dashboard"
	"vaultgate/app/events"
	"vaultgate/app/metrics"
	"vaultgate/app/notifier"
	"vaultgate/app/server"
	"vaultgate/pkg/log"
	"vaultgate/pkg/web"
	webware "vaultgate/pkg/web/middleware"
)

const (
	defaultConfigPath     = config.DefaultConfigPath
	maxRequestsAllowed    = 10000
	serverShutdownTimeout = 30 * time.Second
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "serve the dashboard api and the notification websocket",
		Action: serve,
	}
}

func serve(c *cli.Context) (err error) {
	cfg, err := config.Parse(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Secrets.Validate(); err != nil {
		return err
	}

	log.ConfigureLogger(cfg.Logging)
	defer func() {
		_ = log.Sync() // flush the logger
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(registry)

	gw, closeNode, err := newGateway(ctx, cfg, appMetrics)
	if err != nil {
		return err
	}
	defer closeNode()

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, publisher.Close())
	}()

	notifierSvc := notifier.NewManager(appMetrics)
	authSvc := auth.NewManager(cfg.Secrets.Token)
	dashboardSvc := dashboard.NewManager(cfg.Notifications, gw, notifierSvc, publisher, appMetrics)

	router := newRouter()
	rest := server.Rest{
		Router:    router,
		Dashboard: dashboardSvc,
		Notifier:  notifierSvc,
		Auth:      authSvc,
		Metrics:   appMetrics,
		Gatherer:  registry,
	}
	rest.Route() // handle http requests

	// start notifier an http server and remember to shut it down
	srv := &http.Server{
		Addr:    cfg.RestAddr,
		Handler: router,
	}
	go notifierSvc.Start(ctx)
	go web.Start(srv)
	log.Infow("serving", "addr", cfg.RestAddr, "contract", cfg.Contract.Address, "wallet", cfg.Wallet.Provider)

	// wait for the program exit
	<-ctx.Done()
	return web.Shutdown(srv, serverShutdownTimeout)
}

func newRouter() chi.Router {
	router := chi.NewRouter()

	// add middleware
	router.Use(
		middleware.Throttle(maxRequestsAllowed),
		middleware.RealIP,
		webware.ZapLogger,
		webware.Recoverer,
	)

	return router
}
