package service

import (
	"context"
	"time"

	"jianlou/internal/model"
	"jianlou/internal/repository"
	"jianlou/pkg/async"
	"jianlou/pkg/logger"
)

// NotificationService 站内通知服务
// 通知是旁路操作：写入失败只记录日志，绝不阻塞触发它的业务流程
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	worker           *async.Worker
	logger           *logger.Logger
}

// NewNotificationService 创建站内通知服务
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	worker *async.Worker,
	logger *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		worker:           worker,
		logger:           logger,
	}
}

// Notify 异步发送一条通知
func (s *NotificationService) Notify(userID uint64, title, body, link string) {
	s.worker.Submit(async.Task{
		Name:    "notify",
		Timeout: 10 * time.Second,
		Handler: func(ctx context.Context) error {
			return s.notificationRepo.Create(&model.Notification{
				UserID: userID,
				Title:  title,
				Body:   body,
				Link:   link,
			})
		},
	})
}

// ListByUser 获取用户的通知列表
func (s *NotificationService) ListByUser(userID uint64, limit int) ([]model.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(userID, limit)
}
