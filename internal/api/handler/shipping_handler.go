package handler

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"
	"jianlou/pkg/superfrete"

	"github.com/gin-gonic/gin"
)

// ShippingHandler 物流处理器
type ShippingHandler struct {
	shippingService *service.ShippingService
	logger          *logger.Logger
}

// NewShippingHandler 创建物流处理器实例
func NewShippingHandler(shippingService *service.ShippingService, logger *logger.Logger) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService, logger: logger}
}

// QuoteFreight 商品运费询价
func (h *ShippingHandler) QuoteFreight(c *gin.Context) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}
	toPostalCode := c.Query("to_postal_code")
	if toPostalCode == "" {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	options, err := h.shippingService.QuoteForListing(c.Request.Context(), listingID, toPostalCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, options)
}

// PurchaseLabel 卖家为已支付订单购买运单
func (h *ShippingHandler) PurchaseLabel(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	var req struct {
		To superfrete.Address `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.To.PostalCode == "" {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	labelID, err := h.shippingService.PurchaseLabel(c.Request.Context(), orderID, c.GetUint64("user_id"), req.To)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessCreate, gin.H{"superfrete_id": labelID})
}

// PrintLabel 获取运单打印链接
func (h *ShippingHandler) PrintLabel(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	url, err := h.shippingService.PrintableURL(c.Request.Context(), orderID, c.GetUint64("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, gin.H{"print_url": url})
}
