package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"jianlou/internal/model"
	"jianlou/pkg/mercadopago"
)

// 内存测试替身，只实现被测路径用到的方法，未实现的方法走内嵌接口直接panic

type stubOrderStore struct {
	OrderStore
	mu sync.Mutex

	order *model.Order

	markCancelledCalls     int
	setPaymentIDCalls      int
	manualActionCalls      int
	cancelFailedCalls      int
	cancelFailedMsg        string
	shippingCancelledCalls int
}

func (s *stubOrderStore) GetByID(id uint64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != id {
		return nil, nil
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrderStore) GetByOrderNo(orderNo string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.OrderNo != orderNo {
		return nil, nil
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrderStore) ApprovePayment(orderID uint64, feeCents int64, paymentID int64, shippingPostDeadlineAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order.Status != model.OrderStatusPending {
		return false, nil
	}
	s.order.Status = model.OrderStatusApproved
	s.order.FeeCents = feeCents
	s.order.MpPaymentID = sql.NullInt64{Int64: paymentID, Valid: true}
	return true, nil
}

func (s *stubOrderStore) MarkCancelled(orderID uint64, actor, reason string, viaNegotiation bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCancelledCalls++
	if model.IsCancelledStatus(s.order.Status) {
		return false, nil
	}
	s.order.Status = model.OrderStatusCancelled
	s.order.CancelReason = sql.NullString{String: reason, Valid: true}
	s.order.CancelledBy = sql.NullString{String: actor, Valid: true}
	return true, nil
}

func (s *stubOrderStore) SetPaymentID(orderID uint64, paymentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPaymentIDCalls++
	s.order.MpPaymentID = sql.NullInt64{Int64: paymentID, Valid: true}
	return nil
}

func (s *stubOrderStore) SetShippingManualAction(orderID uint64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualActionCalls++
	s.order.ShippingManualAction = true
	return nil
}

func (s *stubOrderStore) SetShippingCancelFailed(orderID uint64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelFailedCalls++
	s.cancelFailedMsg = errMsg
	s.order.ShippingCancelFailed = true
	return nil
}

func (s *stubOrderStore) MarkShippingCancelled(orderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shippingCancelledCalls++
	s.order.ShippingStatus = model.ShippingStatusCancelled
	return nil
}

type stubPaymentEventStore struct {
	mu     sync.Mutex
	events []model.PaymentEvent
}

func (s *stubPaymentEventStore) Create(event *model.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *stubPaymentEventStore) ListByOrder(orderID uint64) ([]model.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentEvent
	for _, e := range s.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubPaymentEventStore) HasSuccessfulRefund(orderID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.OrderID == orderID && e.EventType == model.PaymentEventTypeRefund && e.Success {
			return true, nil
		}
	}
	return false, nil
}

type stubNotifier struct {
	mu     sync.Mutex
	titles map[uint64][]string
}

func (s *stubNotifier) Notify(userID uint64, title, body, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles == nil {
		s.titles = map[uint64][]string{}
	}
	s.titles[userID] = append(s.titles[userID], title)
}

func (s *stubNotifier) count(userID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titles[userID])
}

type stubPaymentGateway struct {
	PaymentGateway
	mu sync.Mutex

	payment     mercadopago.Payment
	refundErr   error
	refundCalls int
	refundKeys  []string
}

func (s *stubPaymentGateway) GetPayment(ctx context.Context, paymentID int64) (*mercadopago.Payment, error) {
	copied := s.payment
	return &copied, nil
}

func (s *stubPaymentGateway) RefundPayment(ctx context.Context, paymentID int64, idempotencyKey string) (*mercadopago.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refundCalls++
	s.refundKeys = append(s.refundKeys, idempotencyKey)
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return &mercadopago.Refund{ID: 1, PaymentID: paymentID, Status: "approved"}, nil
}

type stubShippingGateway struct {
	ShippingGateway
	mu sync.Mutex

	cancelErr   error
	cancelCalls int
}

func (s *stubShippingGateway) CancelLabel(ctx context.Context, labelID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelCalls++
	return s.cancelErr
}

type stubRefunder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRefunder) RefundOrder(ctx context.Context, order *model.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return true, nil
}

type stubLabelCanceller struct {
	mu    sync.Mutex
	calls int
}

func (s *stubLabelCanceller) CancelForOrder(ctx context.Context, order *model.Order, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}
