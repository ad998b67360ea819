package handler

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler 创建订单处理器实例
func NewOrderHandler(orderService *service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// ListOrders 获取当前用户参与的订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.GetUint64("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := h.orderService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, gin.H{"orders": orders, "total": total})
}

// GetOrder 获取单个订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	order, err := h.orderService.GetForUser(orderID, c.GetUint64("user_id"), c.GetBool("is_admin"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, order)
}

// MarkShipped 卖家标记发货
func (h *OrderHandler) MarkShipped(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.orderService.MarkShipped(c.Request.Context(), orderID, c.GetUint64("user_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessUpdate, nil)
}

// ConfirmDelivered 买家确认收货
func (h *OrderHandler) ConfirmDelivered(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.orderService.ConfirmDelivered(c.Request.Context(), orderID, c.GetUint64("user_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessUpdate, nil)
}

// RequestCancel 发起取消订单
func (h *OrderHandler) RequestCancel(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
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

	if err := h.orderService.RequestCancel(c.Request.Context(), orderID, c.GetUint64("user_id"), req.Reason); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessUpdate, nil)
}

// RespondCancel 响应取消请求
func (h *OrderHandler) RespondCancel(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	if err := h.orderService.RespondCancel(c.Request.Context(), orderID, c.GetUint64("user_id"), *req.Approve); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessUpdate, nil)
}
