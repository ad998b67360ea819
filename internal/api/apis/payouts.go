package apis

import (
	"jianlou/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterPayoutRoutes 注册提现相关路由
func RegisterPayoutRoutes(router *gin.RouterGroup, payoutHandler *handler.PayoutHandler) {
	payouts := router.Group("/payouts")
	{
		// 可提现订单与净额
		payouts.GET("/eligible", payoutHandler.Eligible)
		// 发起提现
		payouts.POST("", payoutHandler.Request)
		// 本人提现记录
		payouts.GET("", payoutHandler.ListMine)
	}
}
