package repository

import (
	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// PaymentEventRepository 支付事件存储库
type PaymentEventRepository struct {
	db *sqlx.DB
}

// NewPaymentEventRepository 创建支付事件存储库
func NewPaymentEventRepository(db *sqlx.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create 落一条支付事件审计记录
func (r *PaymentEventRepository) Create(event *model.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (order_id, event_type, mp_payment_id, success, raw_payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, event.OrderID, event.EventType, event.MpPaymentID, event.Success, event.RawPayload)
	return err
}

// ListByOrder 获取订单的支付事件历史
func (r *PaymentEventRepository) ListByOrder(orderID uint64) ([]model.PaymentEvent, error) {
	var events []model.PaymentEvent
	query := `SELECT * FROM payment_events WHERE order_id = ? ORDER BY created_at ASC`
	err := r.db.Select(&events, query, orderID)
	return events, err
}

// HasSuccessfulRefund 检查订单是否已有成功退款（自动取消幂等保护）
func (r *PaymentEventRepository) HasSuccessfulRefund(orderID uint64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM payment_events WHERE order_id = ? AND event_type = 'refund' AND success = 1`
	err := r.db.Get(&count, query, orderID)
	return count > 0, err
}
