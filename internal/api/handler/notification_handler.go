package handler

import (
	"strconv"

	"jianlou/internal/constants"
	"jianlou/internal/service"
	"jianlou/pkg/logger"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler 创建通知处理器实例
func NewNotificationHandler(notificationService *service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

// ListMine 查询本人的通知
func (h *NotificationHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, err := h.notificationService.ListByUser(c.GetUint64("user_id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, constants.SuccessGet, notifications)
}
