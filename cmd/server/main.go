package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/sanset/internal/cart/application"
	cartdomain "github.com/wyfcoding/sanset/internal/cart/domain"
	cartmsg "github.com/wyfcoding/sanset/internal/cart/infrastructure/messaging"
	cartmysql "github.com/wyfcoding/sanset/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/sanset/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/sanset/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/sanset/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/sanset/internal/catalog/interfaces/http"
	orderapp "github.com/wyfcoding/sanset/internal/order/application"
	orderdomain "github.com/wyfcoding/sanset/internal/order/domain"
	ordermsg "github.com/wyfcoding/sanset/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/sanset/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/sanset/internal/order/interfaces/http"
	recapp "github.com/wyfcoding/sanset/internal/recommendation/application"
	recdomain "github.com/wyfcoding/sanset/internal/recommendation/domain"
	recmsg "github.com/wyfcoding/sanset/internal/recommendation/infrastructure/messaging"
	recmysql "github.com/wyfcoding/sanset/internal/recommendation/infrastructure/persistence/mysql"
	rechttp "github.com/wyfcoding/sanset/internal/recommendation/interfaces/http"
	"github.com/wyfcoding/sanset/pkg/cache"
	"github.com/wyfcoding/sanset/pkg/config"
	"github.com/wyfcoding/sanset/pkg/db"
	"github.com/wyfcoding/sanset/pkg/idgen"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/metrics"
	"github.com/wyfcoding/sanset/pkg/middleware"
	"github.com/wyfcoding/sanset/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()

	database, err := db.Init(cfg.Database)
	if err != nil {
		logger.Fatal(ctx, "connect db failed", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.Cart{},
		&cartdomain.CartItem{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&recdomain.RecommendationLog{},
	); err != nil {
		logger.Fatal(ctx, "auto migrate failed", "error", err)
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cfg.Redis)
		if err != nil {
			logger.Fatal(ctx, "connect redis failed", "error", err)
		}
		defer redisCache.Close()
	}

	cartPublisher := cartmsg.NewNopPublisher()
	orderPublisher := ordermsg.NewNopPublisher()
	recPublisher := recmsg.NewNopPublisher()
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(cfg.Kafka)
		if err != nil {
			logger.Fatal(ctx, "create kafka producer failed", "error", err)
		}
		defer producer.Close()
		cartPublisher = cartmsg.NewKafkaPublisher(producer)
		orderPublisher = ordermsg.NewKafkaPublisher(producer)
		recPublisher = recmsg.NewKafkaPublisher(producer)
	}

	m := metrics.New(cfg.ServiceName)

	orderIDGen, err := idgen.New(cfg.Checkout.NodeID)
	if err != nil {
		logger.Fatal(ctx, "create id generator failed", "error", err)
	}

	// 仓储
	productRepo := catalogmysql.NewProductRepository(database.DB)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	checkoutStore := ordermysql.NewCheckoutStore(database.DB)
	orderHistory := recmysql.NewOrderHistoryReader(database.DB)
	recLogRepo := recmysql.NewLogRepository(database.DB)

	// 应用服务
	catalogService := catalogapp.NewCatalogService(productRepo, redisCache, time.Duration(cfg.Redis.TTL)*time.Second)
	cartService := cartapp.NewCartApplicationService(cartRepo, productRepo, cartPublisher)
	checkoutService := orderapp.NewCheckoutService(
		checkoutStore,
		orderIDGen,
		orderPublisher,
		m,
		time.Duration(cfg.Checkout.DeliveryWindowMinutes)*time.Minute,
		cfg.Checkout.PaymentURLPrefix,
	)
	orderService := orderapp.NewOrderApplicationService(checkoutService, orderapp.NewOrderQueryService(orderRepo))
	recEngine := recapp.NewEngine(orderHistory, productRepo, recLogRepo, recPublisher, m, cfg.Recommend.Seed)

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	authed := router.Group("", middleware.GinAuthMiddleware(cfg.Auth.JWTSecret))
	cataloghttp.NewCatalogHandler(catalogService).RegisterRoutes(authed)
	carthttp.NewCartHandler(cartService).RegisterRoutes(authed)
	orderhttp.NewOrderHandler(orderService).RegisterRoutes(authed)
	rechttp.NewRecommendationHandler(recEngine, cfg.Recommend.MaxLimit).RegisterRoutes(authed)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
}
