package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/abdoElHodaky/tradsys-core/internal/config"
	"github.com/abdoElHodaky/tradsys-core/internal/logging"
	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/internal/tradeclient"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "tradeclient.yaml", "path to the trading-client YAML config")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app := fx.New(
		fx.Supply(logger, config.ClientPath(*configPath)),
		config.ClientModule,
		fx.Provide(
			metrics.New,
			newShutdownFlag,
			newLogProducer,
			newLogConsumer,
			newOrderConn,
			newClient,
			newAdminRouter,
		),
		fx.Invoke(runTradeClient),
	)

	app.Run()
}

func newShutdownFlag() *int32 {
	var f int32
	return &f
}

func newLogProducer() *logging.Producer {
	return logging.NewProducer(256)
}

func newLogConsumer(logger *zap.Logger, shutdown *int32, producer *logging.Producer) *logging.Consumer {
	return logging.NewConsumer(logger, shutdown, producer)
}

func newOrderConn(cfg *config.ClientConfig) (*tradeclient.OrderConn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return tradeclient.Dial(addr, types.ClientId(cfg.ClientId))
}

// newClient wires exactly one of the two strategies, per cfg.Strategy
// (spec.md §4.5 treats them as mutually exclusive per session).
func newClient(cfg *config.ClientConfig, conn *tradeclient.OrderConn, log *logging.Producer, reg *metrics.Registry) *tradeclient.Client {
	ticker := types.TickerId(cfg.Ticker)
	limits := types.RiskLimits{
		MaxOrderQty:   types.Qty(cfg.Risk.MaxOrderQty),
		MaxPosition:   cfg.Risk.MaxPosition,
		MaxLoss:       cfg.Risk.MaxLoss,
		MaxOpenOrders: cfg.Risk.MaxOpenOrders,
	}

	switch cfg.Strategy {
	case "liquidity-taker":
		lt := tradeclient.NewLiquidityTaker(ticker, types.Qty(cfg.LiquidityTaker.BaseQty), cfg.LiquidityTaker.SignalThreshold)
		return tradeclient.NewLiquidityTakerClient(ticker, conn, cfg.FeatureAlpha, limits, lt, log, reg)
	default:
		mm := tradeclient.NewMarketMaker(ticker, float64(cfg.MarketMaker.HalfSpread), float64(cfg.MarketMaker.BaseQty), float64(cfg.Risk.MaxPosition), types.Price(cfg.MarketMaker.Tolerance))
		return tradeclient.NewMarketMakerClient(ticker, conn, cfg.FeatureAlpha, limits, mm, log, reg)
	}
}

func newAdminRouter(c *tradeclient.Client) *gin.Engine {
	return tradeclient.NewAdminRouter(c.AdminState, c.Rejections())
}

// runTradeClient starts the response reader, the market-data feed
// consumer, and the admin HTTP surface on fx's OnStart hook.
func runTradeClient(lc fx.Lifecycle, logger *zap.Logger, cfg *config.ClientConfig, shutdown *int32, consumer *logging.Consumer, conn *tradeclient.OrderConn, client *tradeclient.Client, adminRouter *gin.Engine) {
	feedURL := fmt.Sprintf("ws://%s:%d/marketdata", cfg.Host, cfg.Port)
	feed := tradeclient.NewMarketFeed(feedURL)
	adminServer := &http.Server{Addr: cfg.AdminAddr, Handler: adminRouter}

	feedCtx, cancelFeed := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go consumer.Run()
			go responseLoop(logger, conn, client)
			go runFeedWithReconnect(feedCtx, logger, feed, client)
			go func() {
				if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("tradeclient: admin server stopped", zap.Error(err))
				}
			}()
			logger.Info("tradeclient started", zap.String("strategy", cfg.Strategy), zap.Uint32("ticker", cfg.Ticker))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelFeed()
			atomic.StoreInt32(shutdown, 1)
			conn.Close()
			shutdownCtx, cancelAdmin := context.WithTimeout(ctx, 5*time.Second)
			defer cancelAdmin()
			return adminServer.Shutdown(shutdownCtx)
		},
	})
}

// responseLoop drains the exchange's response stream into the client
// until the connection closes (process shutdown or a wire error).
func responseLoop(logger *zap.Logger, conn *tradeclient.OrderConn, client *tradeclient.Client) {
	for {
		resp, err := conn.ReadResponse()
		if err != nil {
			logger.Warn("tradeclient: response stream closed", zap.Error(err))
			return
		}
		client.OnResponse(resp)
	}
}

// runFeedWithReconnect restarts the market-data feed after a drop,
// mirroring the read-deadline/reconnect shape MarketFeed.Run itself is
// grounded on; this outer loop supplies the "keep retrying" half.
func runFeedWithReconnect(ctx context.Context, logger *zap.Logger, feed *tradeclient.MarketFeed, client *tradeclient.Client) {
	for ctx.Err() == nil {
		err := feed.Run(ctx, client.OnMarketUpdate)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("tradeclient: market feed dropped, reconnecting", zap.Error(err))
		time.Sleep(time.Second)
	}
}
