package handler

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuctionHandler 拍卖处理器
type AuctionHandler struct {
	auctionService *service.AuctionService
	logger         *logger.Logger
}

// NewAuctionHandler 创建拍卖处理器实例
func NewAuctionHandler(auctionService *service.AuctionService, logger *logger.Logger) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService, logger: logger}
}

// PlaceBid 代理出价
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	var req struct {
		MaxAmountCents int64 `json:"max_amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	outcome, err := h.auctionService.PlaceProxyBid(c.Request.Context(), listingID, c.GetUint64("user_id"), req.MaxAmountCents)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessCreate, outcome)
}

// ListBids 出价历史
func (h *AuctionHandler) ListBids(c *gin.Context) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	bids, err := h.auctionService.ListBids(listingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, bids)
}
