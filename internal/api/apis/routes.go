package apis

import (
	"jianlou/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes 注册不需要认证的路由
func RegisterPublicRoutes(
	router *gin.RouterGroup,
	paymentHandler *handler.PaymentHandler,
	auctionHandler *handler.AuctionHandler,
) {
	// 支付网关回调
	router.POST("/payments/webhook", paymentHandler.Webhook)

	RegisterPublicListingRoutes(router, auctionHandler)
}

// RegisterAuthRoutes 注册需要认证的路由
func RegisterAuthRoutes(
	router *gin.RouterGroup,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	shippingHandler *handler.ShippingHandler,
	auctionHandler *handler.AuctionHandler,
	payoutHandler *handler.PayoutHandler,
	notificationHandler *handler.NotificationHandler,
) {
	RegisterOrderRoutes(router, orderHandler, paymentHandler, shippingHandler)
	RegisterListingRoutes(router, auctionHandler, shippingHandler)
	RegisterPayoutRoutes(router, payoutHandler)

	// 本人通知
	router.GET("/notifications", notificationHandler.ListMine)
}
