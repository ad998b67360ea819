package model

import (
	"database/sql"
	"time"
)

// 支付事件类型
const (
	PaymentEventTypePayment = "payment" // 支付通知处理
	PaymentEventTypeRefund  = "refund"  // 退款
)

// PaymentEvent 支付事件审计记录
// 退款等资金操作无论成败都落一行，RawPayload保留网关原始响应供人工对账
type PaymentEvent struct {
	ID          uint64        `db:"id" json:"id"`
	OrderID     uint64        `db:"order_id" json:"order_id"`
	EventType   string        `db:"event_type" json:"event_type"`
	MpPaymentID sql.NullInt64 `db:"mp_payment_id" json:"mp_payment_id,omitempty"`
	Success     bool          `db:"success" json:"success"`
	RawPayload  string        `db:"raw_payload" json:"raw_payload"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
