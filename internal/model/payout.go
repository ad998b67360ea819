package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// 提现申请状态
const (
	PayoutRequestStatusPending  = "pending"
	PayoutRequestStatusPaid     = "paid"
	PayoutRequestStatusRejected = "rejected"
)

// PayoutRequest 卖家提现申请
// OrderIDs为申请时纳入的订单ID集合，JSON数组字符串落库
type PayoutRequest struct {
	ID           uint64         `db:"id" json:"id"`
	SellerUserID uint64         `db:"seller_user_id" json:"seller_user_id"`
	AmountCents  int64          `db:"amount_cents" json:"amount_cents"`
	OrderIDs     string         `db:"order_ids" json:"order_ids"`
	Status       string         `db:"status" json:"status"`
	RejectReason sql.NullString `db:"reject_reason" json:"reject_reason,omitempty"`
	PaidAt       sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ParseOrderIDs 解析批次内订单ID集合
func (p *PayoutRequest) ParseOrderIDs() ([]uint64, error) {
	var ids []uint64
	if err := json.Unmarshal([]byte(p.OrderIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
