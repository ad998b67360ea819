package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员API路由
func RegisterAdminRoutes(
	router *gin.RouterGroup,
	orderAdminHandler *OrderAdminHandler,
	auctionAdminHandler *AuctionAdminHandler,
	payoutAdminHandler *PayoutAdminHandler,
) {
	// 订单管理路由
	orders := router.Group("/orders")
	{
		orders.GET("/manual-action", orderAdminHandler.ListManualAction)
		orders.GET("/:id/payment-events", orderAdminHandler.PaymentEvents)
		orders.POST("/:id/cancel", orderAdminHandler.ForceCancel)
		orders.POST("/:id/resolve-manual-action", orderAdminHandler.ResolveManualAction)
		orders.POST("/:id/reconcile", orderAdminHandler.Reconcile)
		orders.POST("/:id/payout-hold", payoutAdminHandler.HoldOrder)
		orders.POST("/:id/payout-hold/release", payoutAdminHandler.ReleaseOrderHold)
	}

	// 拍卖管理路由
	listings := router.Group("/listings")
	{
		listings.POST("/:id/close-auction", auctionAdminHandler.ForceClose)
	}

	// 提现管理路由
	payouts := router.Group("/payouts")
	{
		payouts.GET("", payoutAdminHandler.List)
		payouts.POST("/:id/mark-paid", payoutAdminHandler.MarkPaid)
		payouts.POST("/:id/reject", payoutAdminHandler.Reject)
	}
}
