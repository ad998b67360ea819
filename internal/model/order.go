package model

import (
	"database/sql"
	"time"
)

// 订单主状态（支付维度）
const (
	OrderStatusPending   = "pending"   // 待支付
	OrderStatusApproved  = "approved"  // 已支付
	OrderStatusCancelled = "cancelled" // 已取消（规范写法）
)

// 物流子状态，与支付状态正交推进
const (
	ShippingStatusPending   = "pending"   // 待发货
	ShippingStatusShipped   = "shipped"   // 已发货
	ShippingStatusDelivered = "delivered" // 已签收
	ShippingStatusCancelled = "cancelled" // 已取消
)

// 取消协商状态
const (
	CancelStatusNone      = "none"      // 无取消请求
	CancelStatusRequested = "requested" // 等待对方处理
	CancelStatusApproved  = "approved"  // 对方同意，订单已取消
	CancelStatusRejected  = "rejected"  // 对方拒绝，订单继续
)

// 提现状态
const (
	PayoutStatusNone      = "none"      // 未进入提现流程
	PayoutStatusHold      = "hold"      // 资金保留期内
	PayoutStatusRequested = "requested" // 已加入提现申请
	PayoutStatusPaid      = "paid"      // 已打款
)

// 状态变更操作者
const (
	ActorBuyer  = "buyer"
	ActorSeller = "seller"
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// Order 订单模型
type Order struct {
	ID           uint64        `db:"id" json:"id"`
	OrderNo      string        `db:"order_no" json:"order_no"`
	ListingID    sql.NullInt64 `db:"listing_id" json:"listing_id,omitempty"`
	BuyerUserID  uint64        `db:"buyer_user_id" json:"buyer_user_id"`
	SellerUserID uint64        `db:"seller_user_id" json:"seller_user_id"`
	AmountCents  int64         `db:"amount_cents" json:"amount_cents"`
	FeeCents     int64         `db:"fee_cents" json:"fee_cents"`

	Status         string `db:"status" json:"status"`
	ShippingStatus string `db:"shipping_status" json:"shipping_status"`
	CancelStatus   string `db:"cancel_status" json:"cancel_status"`
	PayoutStatus   string `db:"payout_status" json:"payout_status"`

	CancelReason      sql.NullString `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelRequestedBy sql.NullInt64  `db:"cancel_requested_by" json:"cancel_requested_by,omitempty"`
	CancelledBy       sql.NullString `db:"cancelled_by" json:"cancelled_by,omitempty"`

	DeliveredAt             sql.NullTime `db:"delivered_at" json:"delivered_at,omitempty"`
	AvailableAt             sql.NullTime `db:"available_at" json:"available_at,omitempty"`
	BuyerApprovalDeadlineAt sql.NullTime `db:"buyer_approval_deadline_at" json:"buyer_approval_deadline_at,omitempty"`
	PaymentDeadlineAt       sql.NullTime `db:"payment_deadline_at" json:"payment_deadline_at,omitempty"`
	ShippingPostDeadlineAt  sql.NullTime `db:"shipping_post_deadline_at" json:"shipping_post_deadline_at,omitempty"`
	CancelRequestedAt       sql.NullTime `db:"cancel_requested_at" json:"cancel_requested_at,omitempty"`
	CancelResponseAt        sql.NullTime `db:"cancel_response_at" json:"cancel_response_at,omitempty"`
	ShippingCanceledAt      sql.NullTime `db:"shipping_canceled_at" json:"shipping_canceled_at,omitempty"`
	PayoutRequestedAt       sql.NullTime `db:"payout_requested_at" json:"payout_requested_at,omitempty"`
	PayoutPaidAt            sql.NullTime `db:"payout_paid_at" json:"payout_paid_at,omitempty"`

	// 外部系统关联
	MpPreferenceID     sql.NullString `db:"mp_preference_id" json:"mp_preference_id,omitempty"`
	MpPaymentID        sql.NullInt64  `db:"mp_payment_id" json:"mp_payment_id,omitempty"`
	SuperfreteID       sql.NullString `db:"superfrete_id" json:"superfrete_id,omitempty"`
	SuperfreteStatus   sql.NullString `db:"superfrete_status" json:"superfrete_status,omitempty"`
	SuperfreteTracking sql.NullString `db:"superfrete_tracking" json:"superfrete_tracking,omitempty"`
	SuperfretePrintURL sql.NullString `db:"superfrete_print_url" json:"superfrete_print_url,omitempty"`
	SuperfreteRawInfo  sql.NullString `db:"superfrete_raw_info" json:"-"`

	// 降级状态标记，记录需要人工跟进的半失败状态
	ShippingCancelFailed bool           `db:"shipping_cancel_failed" json:"shipping_cancel_failed"`
	ShippingManualAction bool           `db:"shipping_manual_action" json:"shipping_manual_action"`
	SuperfreteLastError  sql.NullString `db:"superfrete_last_error" json:"superfrete_last_error,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsCancelledStatus 判断状态是否为已取消
// 历史数据中存在cancelled与canceled两种拼写，读取时视为等价，写入只用cancelled
func IsCancelledStatus(status string) bool {
	return status == "cancelled" || status == "canceled"
}

// IsApprovedStatus 判断状态是否为已支付
// 历史数据中paid与approved混用，读取时视为等价，写入只用approved
func IsApprovedStatus(status string) bool {
	return status == OrderStatusApproved || status == "paid"
}

// IsShipped 物流是否已进入不可自动回退的阶段
func (o *Order) IsShipped() bool {
	return o.ShippingStatus == ShippingStatusShipped || o.ShippingStatus == ShippingStatusDelivered
}

// AvailableAtOrFallback 资金可提现时间
// 依次回退：available_at → buyer_approval_deadline_at → delivered_at+确认期
func (o *Order) AvailableAtOrFallback(buyerApprovalDays int) (time.Time, bool) {
	if o.AvailableAt.Valid {
		return o.AvailableAt.Time, true
	}
	if o.BuyerApprovalDeadlineAt.Valid {
		return o.BuyerApprovalDeadlineAt.Time, true
	}
	if o.DeliveredAt.Valid {
		return o.DeliveredAt.Time.AddDate(0, 0, buyerApprovalDays), true
	}
	return time.Time{}, false
}
