package apis

import (
	"jianlou/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes 注册订单相关路由
func RegisterOrderRoutes(router *gin.RouterGroup, orderHandler *handler.OrderHandler, paymentHandler *handler.PaymentHandler, shippingHandler *handler.ShippingHandler) {
	// 订单相关路由
	orders := router.Group("/orders")
	{
		// 本人参与的订单列表
		orders.GET("", orderHandler.ListOrders)
		// 订单详情
		orders.GET("/:id", orderHandler.GetOrder)
		// 创建支付单
		orders.POST("/:id/checkout", paymentHandler.CreateCheckout)
		// 卖家标记发货
		orders.POST("/:id/ship", orderHandler.MarkShipped)
		// 买家确认收货
		orders.POST("/:id/confirm-delivery", orderHandler.ConfirmDelivered)
		// 发起取消
		orders.POST("/:id/cancel", orderHandler.RequestCancel)
		// 响应取消请求
		orders.POST("/:id/cancel-response", orderHandler.RespondCancel)
		// 购买运单
		orders.POST("/:id/label", shippingHandler.PurchaseLabel)
		// 运单打印链接
		orders.GET("/:id/label/print", shippingHandler.PrintLabel)
	}
}
