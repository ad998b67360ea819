package service

import (
	"context"
	"time"

	"jianlou/internal/model"
	"jianlou/internal/repository"
)

// OrderStore 订单存储能力，生产实现为repository.OrderRepository
// 事务型方法不在此列，拍卖结算与提现服务直接持有具体存储库
type OrderStore interface {
	GetByID(id uint64) (*model.Order, error)
	GetByOrderNo(orderNo string) (*model.Order, error)
	GetByPreferenceID(preferenceID string) (*model.Order, error)
	ListByUser(userID uint64, page, pageSize int) ([]model.Order, int, error)
	SetPreference(orderID uint64, preferenceID string) error
	SetPaymentID(orderID uint64, paymentID int64) error
	ApprovePayment(orderID uint64, feeCents int64, paymentID int64, shippingPostDeadlineAt time.Time) (bool, error)
	MarkShipped(orderID uint64) (bool, error)
	MarkDelivered(orderID uint64, deliveredAt, availableAt, approvalDeadlineAt time.Time) (bool, error)
	RequestCancel(orderID uint64, reason string, requestedBy uint64) (bool, error)
	RejectCancel(orderID uint64) (bool, error)
	MarkCancelled(orderID uint64, actor, reason string, viaNegotiation bool) (bool, error)
	SetLabel(orderID uint64, superfreteID, status string) error
	UpdateLabelInfo(orderID uint64, status, tracking, printURL, rawInfo string) error
	SetLabelError(orderID uint64, errMsg string) error
	SetPrintURL(orderID uint64, printURL string) error
	SetShippingCancelFailed(orderID uint64, errMsg string) error
	SetShippingManualAction(orderID uint64, reason string) error
	ClearShippingManualAction(orderID uint64) error
	MarkShippingCancelled(orderID uint64) error
	ListLabelsToSync(limit int) ([]model.Order, error)
	ListShippingDeadlineLapsed(now time.Time, limit int) ([]model.Order, error)
	ListPaymentDeadlineLapsed(now time.Time, limit int) ([]model.Order, error)
	ListPendingWithPreference(olderThan time.Time, limit int) ([]model.Order, error)
	ListManualAction(limit int) ([]model.Order, error)
}

// PaymentEventStore 支付事件审计存储能力
type PaymentEventStore interface {
	Create(event *model.PaymentEvent) error
	ListByOrder(orderID uint64) ([]model.PaymentEvent, error)
	HasSuccessfulRefund(orderID uint64) (bool, error)
}

// Notifier 站内信投递能力
type Notifier interface {
	Notify(userID uint64, title, body, link string)
}

// OrderRefunder 订单退款能力，取消流程通过此接口触发退款
type OrderRefunder interface {
	RefundOrder(ctx context.Context, order *model.Order) (bool, error)
}

// LabelCanceller 运单取消能力，取消流程中与退款相互独立
type LabelCanceller interface {
	CancelForOrder(ctx context.Context, order *model.Order, reason string)
}

var (
	_ OrderStore        = (*repository.OrderRepository)(nil)
	_ PaymentEventStore = (*repository.PaymentEventRepository)(nil)
	_ Notifier          = (*NotificationService)(nil)
	_ OrderRefunder     = (*PaymentService)(nil)
	_ LabelCanceller    = (*ShippingService)(nil)
)
