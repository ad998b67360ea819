package handler

import (
	"net/http"
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *logger.Logger
}

// NewPaymentHandler 创建支付处理器实例
func NewPaymentHandler(paymentService *service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// CreateCheckout 为待支付订单创建支付单，返回收银台链接
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	initPoint, err := h.paymentService.CreateCheckout(c.Request.Context(), orderID, c.GetUint64("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessCreate, gin.H{"init_point": initPoint})
}

// Webhook 支付网关回调
// 网关约定：处理失败之外一律回200，避免网关反复重发
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req struct {
		Type string `json:"type" form:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("无法解析的支付回调", "error", err)
		c.Status(http.StatusOK)
		return
	}

	// 兼容query形式的回调参数
	if req.Type == "" {
		req.Type = c.Query("type")
	}
	if req.Data.ID == "" {
		req.Data.ID = c.Query("data.id")
	}

	if req.Type != "payment" || req.Data.ID == "" {
		c.Status(http.StatusOK)
		return
	}

	paymentID, err := strconv.ParseInt(req.Data.ID, 10, 64)
	if err != nil {
		h.logger.Warn("支付回调中的支付ID无效", "data_id", req.Data.ID)
		c.Status(http.StatusOK)
		return
	}

	if err := h.paymentService.ProcessPaymentNotification(c.Request.Context(), paymentID); err != nil {
		h.logger.Error("处理支付回调失败", "payment_id", paymentID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
