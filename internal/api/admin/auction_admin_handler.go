package admin

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuctionAdminHandler 拍卖管理处理器
type AuctionAdminHandler struct {
	auctionService *service.AuctionService
	logger         *logger.Logger
}

// NewAuctionAdminHandler 创建拍卖管理处理器实例
func NewAuctionAdminHandler(auctionService *service.AuctionService, logger *logger.Logger) *AuctionAdminHandler {
	return &AuctionAdminHandler{auctionService: auctionService, logger: logger}
}

// ForceClose 管理员强制结算拍卖
func (h *AuctionAdminHandler) ForceClose(c *gin.Context) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.auctionService.CloseAuctionByID(c.Request.Context(), listingID, model.ActorAdmin); err != nil {
		switch err.Error() {
		case constants.ErrListingNotFound:
			c.JSON(http.StatusOK, gin.H{"code": 404, "msg": err.Error()})
		case constants.ErrListingNotAuction:
			c.JSON(http.StatusOK, gin.H{"code": 400, "msg": err.Error()})
		default:
			h.logger.Error("强制结算拍卖失败", "listing_id", listingID, "error", err)
			c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}
