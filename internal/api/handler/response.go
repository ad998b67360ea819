package handler

import (
	"net/http"

	"jianlou/internal/constants"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// 业务错误到响应码的映射，未列出的错误按内部错误处理
var businessErrorCodes = map[string]int{
	constants.ErrOrderNotFound:          404,
	constants.ErrListingNotFound:        404,
	constants.ErrLabelNotFound:          404,
	constants.ErrPayoutNotFound:         404,
	constants.ErrOrderNotParticipant:    403,
	constants.ErrInsufficientPermission: 403,
	constants.ErrOrderNotPending:        400,
	constants.ErrOrderNotApproved:       400,
	constants.ErrOrderAlreadyShipped:    400,
	constants.ErrOrderCancelled:         400,
	constants.ErrCancelReasonInvalid:    400,
	constants.ErrCancelNotRequested:     400,
	constants.ErrCancelAlreadyPending:   400,
	constants.ErrCancelWindowClosed:     400,
	constants.ErrListingNotAuction:      400,
	constants.ErrAuctionClosed:          400,
	constants.ErrBidOwnListing:          400,
	constants.ErrBidTooLow:              400,
	constants.ErrLabelAlreadyExists:     400,
	constants.ErrLabelNotPrintable:      400,
	constants.ErrPayoutNoEligible:       400,
	constants.ErrPayoutNotPending:       400,
	constants.ErrPayoutNotRequested:     400,
	constants.ErrPayoutHoldRejected:     400,
	constants.ErrPayoutNotOnHold:        400,
}

// respondError 统一错误响应，非业务错误记日志并返回500
func respondError(c *gin.Context, log *logger.Logger, err error) {
	msg := err.Error()
	if code, ok := businessErrorCodes[msg]; ok {
		c.JSON(http.StatusOK, gin.H{"code": code, "msg": msg})
		return
	}
	log.Error("请求处理失败", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
}

// respondOK 成功响应
func respondOK(c *gin.Context, msg string, data interface{}) {
	resp := gin.H{"code": 200, "msg": msg}
	if data != nil {
		resp["data"] = data
	}
	c.JSON(http.StatusOK, resp)
}
