// Package api implements app.Runner for the bridge server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/defi-direct/bridge-middleware/internal/metrics"
	apphttp "github.com/defi-direct/bridge-middleware/pkg/app/http"
	"github.com/defi-direct/bridge-middleware/pkg/auth"
	"github.com/defi-direct/bridge-middleware/pkg/config"
	"github.com/defi-direct/bridge-middleware/pkg/events"
	"github.com/defi-direct/bridge-middleware/pkg/ledger"
	ledgerpg "github.com/defi-direct/bridge-middleware/pkg/ledger/store/pg"
	"github.com/defi-direct/bridge-middleware/pkg/pgutil"
	"github.com/defi-direct/bridge-middleware/pkg/quote"
	"github.com/defi-direct/bridge-middleware/pkg/relay"
	relaypg "github.com/defi-direct/bridge-middleware/pkg/relay/store/pg"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the bridge server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new bridge server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("bridge server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	bus := events.NewBus()
	defer bus.Close()

	go events.LogEvents(ctx, logger.Named("events"), bus.Subscribe(256))
	if cfg.Monitoring.Enabled {
		go metrics.Collect(ctx, bus.Subscribe(256))
	}

	ledgerService, relayService := s.buildServices(db, bus, logger)

	router := s.setupRouter(ledgerService, relayService, logger)

	stopMetrics := s.startMetricsServer(logger)
	defer stopMetrics()

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

func (s *Server) buildServices(db *bun.DB, bus *events.Bus, logger *zap.Logger) (ledger.Service, relay.Service) {
	cfg := s.cfg

	oracleClient := &http.Client{Timeout: cfg.Oracle.RequestTimeout}
	routerClient := &http.Client{Timeout: cfg.Router.RequestTimeout}
	oracle := quote.NewHTTPOracle(cfg.Oracle.BaseURL, oracleClient)
	dispatcher := quote.NewHTTPRouter(cfg.Router.BaseURL, routerClient)

	tokens := make(map[common.Address]uint8, len(cfg.Ledger.SupportedTokens))
	for _, t := range cfg.Ledger.SupportedTokens {
		tokens[common.HexToAddress(t.Address)] = t.Decimals
	}

	ledgerEngine := ledger.NewEngine(ledgerpg.NewStore(db), oracle, bus, ledger.EngineConfig{
		Owner:              common.HexToAddress(cfg.Ledger.Owner),
		TransactionManager: common.HexToAddress(cfg.Ledger.TransactionManager),
		FeeReceiver:        common.HexToAddress(cfg.Ledger.FeeReceiver),
		Vault:              common.HexToAddress(cfg.Ledger.Vault),
		SpreadFeeBps:       cfg.Ledger.SpreadFeeBps,
		SupportedTokens:    tokens,
	})

	relayTokens := make([]common.Address, 0, len(cfg.Relay.SupportedTokens))
	for _, t := range cfg.Relay.SupportedTokens {
		relayTokens = append(relayTokens, common.HexToAddress(t))
	}
	chains := make([]uint64, 0, len(cfg.Relay.AllowedChains))
	for _, c := range cfg.Relay.AllowedChains {
		chains = append(chains, c.Selector)
	}

	relayEngine := relay.NewEngine(relaypg.NewStore(db), dispatcher, bus, relay.EngineConfig{
		Owner:           common.HexToAddress(cfg.Relay.Owner),
		FeeToken:        common.HexToAddress(cfg.Relay.FeeToken),
		Counterpart:     common.HexToAddress(cfg.Relay.FiatBridge),
		AllowedChains:   chains,
		SupportedTokens: relayTokens,
	})

	return ledger.NewLog(ledgerEngine, logger), relay.NewLog(relayEngine, logger)
}

func (s *Server) setupRouter(ledgerService ledger.Service, relayService relay.Service, logger *zap.Logger) chi.Router {
	cfg := s.cfg
	verifier := auth.NewOperatorVerifier(cfg.Auth.JWTSecret)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))
	if cfg.Monitoring.Enabled {
		r.Use(metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ledger", func(r chi.Router) {
			ledger.RegisterQueryRoutes(r, ledgerService, logger)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSignature(cfg.Auth.MessageMaxAge))
				ledger.RegisterUserRoutes(r, ledgerService, logger)
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireOperator(verifier))
				ledger.RegisterOperatorRoutes(r, ledgerService, logger)
			})
		})
		r.Route("/relay", func(r chi.Router) {
			relay.RegisterQueryRoutes(r, relayService, logger)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSignature(cfg.Auth.MessageMaxAge))
				relay.RegisterUserRoutes(r, relayService, logger)
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireOperator(verifier))
				relay.RegisterOperatorRoutes(r, relayService, logger)
			})
		})
	})

	return r
}

// startMetricsServer exposes Prometheus metrics on a dedicated port.
// Returns a stopper so the listener shuts down before the DB closes.
func (s *Server) startMetricsServer(logger *zap.Logger) func() {
	if !s.cfg.Monitoring.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Monitoring.MetricsPort),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
