package apis

import (
	"jianlou/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterListingRoutes 注册商品拍卖与询价路由
func RegisterListingRoutes(router *gin.RouterGroup, auctionHandler *handler.AuctionHandler, shippingHandler *handler.ShippingHandler) {
	listings := router.Group("/listings")
	{
		// 代理出价
		listings.POST("/:id/bids", auctionHandler.PlaceBid)
		// 商品运费询价
		listings.GET("/:id/freight-quote", shippingHandler.QuoteFreight)
	}
}

// RegisterPublicListingRoutes 注册无需认证的商品路由
func RegisterPublicListingRoutes(router *gin.RouterGroup, auctionHandler *handler.AuctionHandler) {
	// 出价历史公开可查
	router.GET("/listings/:id/bids", auctionHandler.ListBids)
}
