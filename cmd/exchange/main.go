package main

import (
	"context"
	"flag"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/abdoElHodaky/tradsys-core/internal/config"
	"github.com/abdoElHodaky/tradsys-core/internal/gateway"
	"github.com/abdoElHodaky/tradsys-core/internal/logging"
	"github.com/abdoElHodaky/tradsys-core/internal/matching"
	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "exchange.yaml", "path to the exchange YAML config")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app := fx.New(
		fx.Supply(logger, config.ExchangePath(*configPath)),
		config.ExchangeModule,
		fx.Provide(
			metrics.New,
			newShutdownFlag,
			newLogProducer,
			newLogConsumer,
			newEngine,
			newPublisher,
			newServer,
			newAdminRouter,
		),
		fx.Invoke(runExchange),
	)

	app.Run()
}

// newShutdownFlag is the flag logging.Consumer polls for its
// drain-before-exit contract. The gateway's accept, session and
// matching loops poll gateway.Server's own flag, set by Server.Shutdown.
func newShutdownFlag() *int32 {
	var f int32
	return &f
}

func newLogProducer(cfg *config.ExchangeConfig) *logging.Producer {
	return logging.NewProducer(cfg.LogQueueCapacity)
}

func newLogConsumer(logger *zap.Logger, shutdown *int32, producer *logging.Producer) *logging.Consumer {
	return logging.NewConsumer(logger, shutdown, producer)
}

func newEngine(cfg *config.ExchangeConfig) *matching.Engine {
	capacities := make(map[types.TickerId]int, len(cfg.Tickers))
	for _, t := range cfg.Tickers {
		capacities[types.TickerId(t.TickerId)] = t.BookCapacity
	}
	return matching.NewEngine(capacities)
}

func newPublisher(cfg *config.ExchangeConfig, reg *metrics.Registry) *gateway.Publisher {
	return gateway.NewPublisher(reg, cfg.PublishQueueCapacity)
}

func newServer(cfg *config.ExchangeConfig, engine *matching.Engine, pub *gateway.Publisher, producer *logging.Producer, reg *metrics.Registry) (*gateway.Server, error) {
	cb := cfg.CircuitBreaker
	breaker := gateway.CircuitBreakerSettings{
		MaxRequests:  cb.MaxRequests,
		IntervalSecs: cb.Interval.Seconds(),
		TimeoutSecs:  cb.Timeout.Seconds(),
		FailureRatio: cb.FailureRatio,
	}
	addr := ":" + itoa(cfg.Port)
	return gateway.NewServer(addr, engine, pub, producer, reg, cfg.IngressQueueCapacity, cfg.IngressQueueCapacity, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, breaker)
}

func newAdminRouter(engine *matching.Engine, reg *metrics.Registry) *mux.Router {
	return gateway.NewAdminRouter(engine, reg)
}

// runExchange starts every long-running loop on fx's OnStart hook and
// unwinds them on OnStop, in the teacher's cmd/marketdata lifecycle shape.
func runExchange(lc fx.Lifecycle, logger *zap.Logger, cfg *config.ExchangeConfig, shutdown *int32, consumer *logging.Consumer, srv *gateway.Server, pub *gateway.Publisher, adminRouter *mux.Router) {
	rootMux := http.NewServeMux()
	rootMux.Handle("/", adminRouter)
	rootMux.Handle("/marketdata", pub)
	adminServer := &http.Server{Addr: cfg.AdminAddr, Handler: rootMux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go consumer.Run()
			go pub.Run()
			go srv.MatchingLoop()
			go srv.AcceptLoop()
			go func() {
				if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("exchange: admin server stopped", zap.Error(err))
				}
			}()
			logger.Info("exchange started", zap.Int("port", cfg.Port), zap.String("admin_addr", cfg.AdminAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Shutdown()
			atomic.StoreInt32(shutdown, 1)
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return adminServer.Shutdown(shutdownCtx)
		},
	})
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
