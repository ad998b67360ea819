package handler

import (
	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PayoutHandler 提现处理器
type PayoutHandler struct {
	payoutService *service.PayoutService
	logger        *logger.Logger
}

// NewPayoutHandler 创建提现处理器实例
func NewPayoutHandler(payoutService *service.PayoutService, logger *logger.Logger) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService, logger: logger}
}

// Eligible 查询当前可提现的订单与净额
func (h *PayoutHandler) Eligible(c *gin.Context) {
	summary, err := h.payoutService.Eligible(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, summary)
}

// Request 发起提现申请
func (h *PayoutHandler) Request(c *gin.Context) {
	payout, err := h.payoutService.Request(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessCreate, payout)
}

// ListMine 查询本人的提现记录
func (h *PayoutHandler) ListMine(c *gin.Context) {
	payouts, err := h.payoutService.ListBySeller(c.GetUint64("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, payouts)
}
