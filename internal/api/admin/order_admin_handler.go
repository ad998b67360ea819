package admin

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderAdminHandler 订单管理处理器
type OrderAdminHandler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	logger         *logger.Logger
}

// NewOrderAdminHandler 创建订单管理处理器实例
func NewOrderAdminHandler(orderService *service.OrderService, paymentService *service.PaymentService, logger *logger.Logger) *OrderAdminHandler {
	return &OrderAdminHandler{orderService: orderService, paymentService: paymentService, logger: logger}
}

// ForceCancel 管理员强制取消订单
func (h *OrderAdminHandler) ForceCancel(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = policy.CancelReasonOther
	}

	if err := h.orderService.ExecuteCancellation(c.Request.Context(), orderID, model.ActorAdmin, req.Reason, false); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

// ListManualAction 查询待人工处理的订单
func (h *OrderAdminHandler) ListManualAction(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := h.orderService.ListManualAction(limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessGet, "data": orders})
}

// ResolveManualAction 人工处理完成后清除标记
func (h *OrderAdminHandler) ResolveManualAction(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.orderService.ResolveManualAction(orderID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

// PaymentEvents 查询订单的支付事件历史
func (h *OrderAdminHandler) PaymentEvents(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	events, err := h.paymentService.ListOrderEvents(orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessGet, "data": events})
}

// Reconcile 重放订单支付单的网关侧支付记录
func (h *OrderAdminHandler) Reconcile(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	order, err := h.orderService.GetForUser(orderID, c.GetUint64("user_id"), true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !order.MpPreferenceID.Valid {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrOrderNotPending})
		return
	}

	if err := h.paymentService.ReconcilePreference(c.Request.Context(), order.MpPreferenceID.String); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": constants.SuccessUpdate})
}

func (h *OrderAdminHandler) respondError(c *gin.Context, err error) {
	switch err.Error() {
	case constants.ErrOrderNotFound:
		c.JSON(http.StatusOK, gin.H{"code": 404, "msg": err.Error()})
	case constants.ErrOrderCancelled, constants.ErrOrderAlreadyShipped:
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": err.Error()})
	default:
		h.logger.Error("管理端订单操作失败", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
	}
}
