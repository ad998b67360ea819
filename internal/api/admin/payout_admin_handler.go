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

// PayoutAdminHandler 提现管理处理器
type PayoutAdminHandler struct {
	payoutService *service.PayoutService
	logger        *logger.Logger
}

// NewPayoutAdminHandler 创建提现管理处理器实例
func NewPayoutAdminHandler(payoutService *service.PayoutService, logger *logger.Logger) *PayoutAdminHandler {
	return &PayoutAdminHandler{payoutService: payoutService, logger: logger}
}

// List 按状态查询提现申请
func (h *PayoutAdminHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", model.PayoutRequestStatusPending)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	payouts, err := h.payoutService.ListByStatus(status, limit)
	if err != nil {
		h.logger.Error("查询提现申请失败", "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessGet, "data": payouts})
}

// MarkPaid 确认打款
func (h *PayoutAdminHandler) MarkPaid(c *gin.Context) {
	payoutID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.payoutService.MarkPaid(c.Request.Context(), payoutID, c.GetUint64("user_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

// Reject 驳回提现申请
func (h *PayoutAdminHandler) Reject(c *gin.Context) {
	payoutID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.payoutService.Reject(c.Request.Context(), payoutID, c.GetUint64("user_id"), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

// HoldOrder 冻结订单资金
func (h *PayoutAdminHandler) HoldOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.payoutService.HoldOrder(orderID, c.GetUint64("user_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

// ReleaseOrderHold 解除订单资金冻结
func (h *PayoutAdminHandler) ReleaseOrderHold(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.payoutService.ReleaseOrderHold(orderID, c.GetUint64("user_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

func (h *PayoutAdminHandler) respondError(c *gin.Context, err error) {
	switch err.Error() {
	case constants.ErrPayoutNotFound, constants.ErrOrderNotFound:
		c.JSON(http.StatusOK, gin.H{"code": 404, "msg": err.Error()})
	case constants.ErrPayoutNotPending, constants.ErrPayoutNotRequested,
		constants.ErrPayoutHoldRejected, constants.ErrPayoutNotOnHold:
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": err.Error()})
	default:
		h.logger.Error("管理端提现操作失败", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
	}
}
