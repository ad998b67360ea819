package repository

import (
	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// NotificationRepository 站内通知存储库
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository 创建站内通知存储库
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 写入一条通知
func (r *NotificationRepository) Create(n *model.Notification) error {
	query := `INSERT INTO notifications (user_id, title, body, link) VALUES (?, ?, ?, ?)`
	_, err := r.db.Exec(query, n.UserID, n.Title, n.Body, n.Link)
	return err
}

// ListByUser 获取用户的通知，按时间倒序
func (r *NotificationRepository) ListByUser(userID uint64, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	query := `SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.Select(&notifications, query, userID, limit)
	return notifications, err
}
