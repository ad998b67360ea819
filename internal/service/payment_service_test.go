package service

import (
	"context"
	"database/sql"
	"testing"

	"jianlou/config"
	"jianlou/internal/model"
	"jianlou/pkg/logger"
	"jianlou/pkg/mercadopago"
)

func newTestPaymentService(gw *stubPaymentGateway, store *stubOrderStore, events *stubPaymentEventStore, notes *stubNotifier) *PaymentService {
	return &PaymentService{
		gateway:             gw,
		orderRepo:           store,
		paymentEventRepo:    events,
		notificationService: notes,
		baseURL:             "https://shop.example",
		policyCfg:           config.PolicyConfig{FeePercent: 10, ShippingPostDeadlineDays: 3},
		logger:              logger.NewLogger("error"),
	}
}

// 付款期限清理先取消了订单，网关随后才确认捕获：
// 必须补记支付事件与支付ID并立即原路退款，不能让钱停在平台侧
func TestProcessPaymentNotification_LateApprovalAfterCancelRefunds(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:           7,
		OrderNo:      "JL20260801120000AAAAAA",
		BuyerUserID:  10,
		SellerUserID: 20,
		AmountCents:  5000,
		Status:       model.OrderStatusCancelled,
	}}
	gw := &stubPaymentGateway{payment: mercadopago.Payment{
		ID:                555,
		Status:            mercadopago.PaymentStatusApproved,
		ExternalReference: "JL20260801120000AAAAAA",
	}}
	events := &stubPaymentEventStore{}
	notes := &stubNotifier{}
	svc := newTestPaymentService(gw, store, events, notes)

	if err := svc.ProcessPaymentNotification(context.Background(), 555); err != nil {
		t.Fatalf("处理迟到支付通知失败: %v", err)
	}

	if !store.order.MpPaymentID.Valid || store.order.MpPaymentID.Int64 != 555 {
		t.Fatalf("支付ID未补记: %+v", store.order.MpPaymentID)
	}
	if gw.refundCalls != 1 {
		t.Fatalf("退款调用次数 = %d, 期望 1", gw.refundCalls)
	}
	if gw.refundKeys[0] != "refund-JL20260801120000AAAAAA" {
		t.Fatalf("退款幂等键 = %s", gw.refundKeys[0])
	}

	var paymentRecorded, refundRecorded bool
	for _, e := range events.events {
		if e.EventType == model.PaymentEventTypePayment && e.Success {
			paymentRecorded = true
		}
		if e.EventType == model.PaymentEventTypeRefund && e.Success {
			refundRecorded = true
		}
	}
	if !paymentRecorded || !refundRecorded {
		t.Fatalf("审计事件不完整: payment=%v refund=%v", paymentRecorded, refundRecorded)
	}
	if notes.count(10) == 0 {
		t.Fatal("买家未收到退款通知")
	}
}

// 同一迟到支付的重复通知不应产生第二笔退款或重复审计记录
func TestProcessPaymentNotification_LateApprovalRepeatConverges(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:           7,
		OrderNo:      "JL20260801120000BBBBBB",
		BuyerUserID:  10,
		SellerUserID: 20,
		Status:       model.OrderStatusCancelled,
	}}
	gw := &stubPaymentGateway{payment: mercadopago.Payment{
		ID:                556,
		Status:            mercadopago.PaymentStatusApproved,
		ExternalReference: "JL20260801120000BBBBBB",
	}}
	events := &stubPaymentEventStore{}
	svc := newTestPaymentService(gw, store, events, &stubNotifier{})

	for i := 0; i < 2; i++ {
		if err := svc.ProcessPaymentNotification(context.Background(), 556); err != nil {
			t.Fatalf("第%d次通知处理失败: %v", i+1, err)
		}
	}

	if gw.refundCalls != 1 {
		t.Fatalf("退款调用次数 = %d, 期望 1", gw.refundCalls)
	}
	if store.setPaymentIDCalls != 1 {
		t.Fatalf("支付ID补记次数 = %d, 期望 1", store.setPaymentIDCalls)
	}
}

// 已支付订单的重复确认通知静默收敛，不触发退款也不追加事件
func TestProcessPaymentNotification_RepeatApprovalIsSilent(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:           8,
		OrderNo:      "JL20260801120000CCCCCC",
		BuyerUserID:  10,
		SellerUserID: 20,
		Status:       model.OrderStatusApproved,
		MpPaymentID:  sql.NullInt64{Int64: 600, Valid: true},
	}}
	gw := &stubPaymentGateway{payment: mercadopago.Payment{
		ID:                600,
		Status:            mercadopago.PaymentStatusApproved,
		ExternalReference: "JL20260801120000CCCCCC",
	}}
	events := &stubPaymentEventStore{}
	notes := &stubNotifier{}
	svc := newTestPaymentService(gw, store, events, notes)

	if err := svc.ProcessPaymentNotification(context.Background(), 600); err != nil {
		t.Fatalf("处理重复通知失败: %v", err)
	}

	if gw.refundCalls != 0 {
		t.Fatalf("重复通知触发了退款: %d", gw.refundCalls)
	}
	if len(events.events) != 0 {
		t.Fatalf("重复通知追加了事件: %d", len(events.events))
	}
	if notes.count(10) != 0 || notes.count(20) != 0 {
		t.Fatal("重复通知不应再发站内信")
	}
}
