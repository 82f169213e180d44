// Package main is the entry point for the derived collateral price adapter,
// a Chainlink-compatible external adapter that prices a wrapped, yield-bearing
// token from its underlying's reference feed and the token's own exchange rate.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/manoj9april/comet/internal/assets"
	"github.com/manoj9april/comet/internal/chain"
	"github.com/manoj9april/comet/internal/config"
	"github.com/manoj9april/comet/internal/oracle"
	"github.com/manoj9april/comet/internal/otel"
	"github.com/manoj9april/comet/internal/pricefeed"
	"github.com/manoj9april/comet/internal/security"
	"github.com/manoj9april/comet/internal/token"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server represents the adapter server instance
type Server struct {
	// Configuration for the server
	config config.Config

	// The derived feed served by this adapter
	feed oracle.Aggregator

	// Collateral asset configurations loaded at startup
	assetConfigs []assets.AssetConfig

	// Optional response signer
	signer *security.Signer

	// HTTP server instance
	server *http.Server

	// Metrics registry
	metrics *serverMetrics

	// Rate limiter for the EA endpoint
	rateLimit *rate.Limiter
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamErrors  prometheus.Counter
	latestAnswer    prometheus.Gauge
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adapter_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"status", "entrypoint"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adapter_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		upstreamErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adapter_upstream_errors_total",
				Help: "Total number of upstream read failures",
			},
		),
		latestAnswer: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adapter_latest_answer",
				Help: "Most recently served derived answer (approximate float)",
			},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.upstreamErrors,
		m.latestAnswer,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()

	shutdownTracer := otel.InitTracer(cfg)
	defer shutdownTracer()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	server, err := NewServer(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize server: %v", err)
	}

	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// NewServer wires the chain client, upstream sources and derived feed from
// configuration. Any configuration error is fatal here; the process must be
// restarted with corrected inputs.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	if !common.IsHexAddress(cfg.ReferenceFeedAddress) {
		logrus.Fatalf("Invalid reference feed address: %q", cfg.ReferenceFeedAddress)
	}
	if !common.IsHexAddress(cfg.WrappedTokenAddress) {
		logrus.Fatalf("Invalid wrapped token address: %q", cfg.WrappedTokenAddress)
	}

	caller, err := chain.Dial(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	referenceFeed := oracle.NewFeed(caller, common.HexToAddress(cfg.ReferenceFeedAddress))
	wrappedToken := token.New(caller, common.HexToAddress(cfg.WrappedTokenAddress))

	feed, err := pricefeed.New(ctx, pricefeed.Config{
		ReferenceFeed: referenceFeed,
		WrappedToken:  wrappedToken,
		Decimals:      cfg.FeedDecimals,
		Description:   cfg.FeedDescription,
	})
	if err != nil {
		return nil, err
	}

	var assetConfigs []assets.AssetConfig
	if cfg.AssetConfigPath != "" {
		assetConfigs, err = assets.LoadFile(cfg.AssetConfigPath)
		if err != nil {
			return nil, err
		}
	}

	var signer *security.Signer
	if cfg.EnableSigning {
		signer, err = security.NewSigner()
		if err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"port":           cfg.Port,
		"reference_feed": cfg.ReferenceFeedAddress,
		"wrapped_token":  cfg.WrappedTokenAddress,
		"decimals":       cfg.FeedDecimals,
		"description":    cfg.FeedDescription,
		"signing":        cfg.EnableSigning,
		"assets":         len(assetConfigs),
	}).Info("Server initialized")

	return &Server{
		config:       cfg,
		feed:         feed,
		assetConfigs: assetConfigs,
		signer:       signer,
		metrics:      registerMetrics(),
		rateLimit:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}, nil
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRequest)       // Main Chainlink EA endpoint
	mux.HandleFunc("/health", s.handleHealth)  // Health check endpoint
	mux.HandleFunc("/status", s.handleStatus)  // Service status endpoint
	mux.HandleFunc("/assets", s.handleAssets)  // Collateral asset configurations
	mux.Handle("/metrics", promhttp.Handler()) // Prometheus metrics endpoint

	s.server = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}
