package api

import (
	"jianlou/config"
	"jianlou/internal/api/admin"
	"jianlou/internal/api/apis"
	"jianlou/internal/api/handler"
	"jianlou/internal/middleware"
	"jianlou/internal/repository"
	"jianlou/internal/scheduler"
	"jianlou/internal/service"
	"jianlou/pkg/async"
	"jianlou/pkg/logger"
	"jianlou/pkg/mercadopago"
	"jianlou/pkg/superfrete"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client) (*gin.Engine, *scheduler.SettlementScheduler) {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5)

	// 初始化网关客户端
	mpClient := mercadopago.NewClient(cfg.MercadoPago)
	sfClient := superfrete.NewClient(cfg.SuperFrete)

	// 初始化存储库
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	listingRepo := repository.NewListingRepository(db)
	bidRepo := repository.NewBidRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 初始化服务
	userService := service.NewUserService(userRepo, redisClient, logger)
	notificationService := service.NewNotificationService(notificationRepo, worker, logger)
	paymentService := service.NewPaymentService(mpClient, orderRepo, paymentEventRepo, notificationService, cfg.BaseURL, cfg.Policy, logger)
	shippingService := service.NewShippingService(sfClient, orderRepo, listingRepo, userRepo, notificationService, redisClient, cfg.Policy, logger)
	orderService := service.NewOrderService(orderRepo, paymentService, shippingService, notificationService, cfg.Policy, logger)
	auctionService := service.NewAuctionService(db, listingRepo, bidRepo, orderRepo, notificationService, cfg.Policy, logger)
	payoutService := service.NewPayoutService(db, payoutRepo, orderRepo, notificationService, cfg.Policy, logger)

	// 初始化结算调度器
	settlementScheduler := scheduler.NewSettlementScheduler(auctionService, orderService, shippingService, paymentService, logger)
	settlementScheduler.Start()

	// 初始化处理器
	orderHandler := handler.NewOrderHandler(orderService, logger)
	auctionHandler := handler.NewAuctionHandler(auctionService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	shippingHandler := handler.NewShippingHandler(shippingService, logger)
	payoutHandler := handler.NewPayoutHandler(payoutService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	// 初始化管理员处理器
	orderAdminHandler := admin.NewOrderAdminHandler(orderService, paymentService, logger)
	auctionAdminHandler := admin.NewAuctionAdminHandler(auctionService, logger)
	payoutAdminHandler := admin.NewPayoutAdminHandler(payoutService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API版本v1
	v1 := router.Group("/api/v1")

	// 注册不需要认证的路由
	apis.RegisterPublicRoutes(v1, paymentHandler, auctionHandler)

	// 创建需要认证的API路由组
	authRouter := v1.Group("")
	authRouter.Use(middleware.UserAuth(userService))
	apis.RegisterAuthRoutes(authRouter, orderHandler, paymentHandler, shippingHandler, auctionHandler, payoutHandler, notificationHandler)

	// 注册管理员API路由
	adminRouter := v1.Group("/admin")
	adminRouter.Use(middleware.AdminAuth(userService))
	admin.RegisterAdminRoutes(adminRouter, orderAdminHandler, auctionAdminHandler, payoutAdminHandler)

	return router, settlementScheduler
}
