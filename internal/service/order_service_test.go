package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"jianlou/config"
	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/pkg/logger"
)

func TestCancelMode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	const (
		buyerID  = uint64(10)
		sellerID = uint64(20)
	)

	baseOrder := func() *model.Order {
		return &model.Order{
			BuyerUserID:    buyerID,
			SellerUserID:   sellerID,
			Status:         model.OrderStatusApproved,
			ShippingStatus: model.ShippingStatusPending,
			CancelStatus:   model.CancelStatusNone,
		}
	}

	tests := []struct {
		name     string
		modify   func(o *model.Order)
		actor    uint64
		wantMode string
		wantErr  string
	}{
		{
			name:     "待支付订单买家直接取消",
			modify:   func(o *model.Order) { o.Status = model.OrderStatusPending },
			actor:    buyerID,
			wantMode: cancelModeImmediate,
		},
		{
			name:     "待支付订单卖家直接取消",
			modify:   func(o *model.Order) { o.Status = model.OrderStatusPending },
			actor:    sellerID,
			wantMode: cancelModeImmediate,
		},
		{
			name:     "已支付未发货进入协商",
			modify:   func(o *model.Order) {},
			actor:    buyerID,
			wantMode: cancelModeNegotiate,
		},
		{
			name:     "历史paid状态与approved等价",
			modify:   func(o *model.Order) { o.Status = "paid" },
			actor:    sellerID,
			wantMode: cancelModeNegotiate,
		},
		{
			name:    "已发货后卖家不可取消",
			modify:  func(o *model.Order) { o.ShippingStatus = model.ShippingStatusShipped },
			actor:   sellerID,
			wantErr: constants.ErrOrderAlreadyShipped,
		},
		{
			name:     "已发货未签收买家可发起协商",
			modify:   func(o *model.Order) { o.ShippingStatus = model.ShippingStatusShipped },
			actor:    buyerID,
			wantMode: cancelModeNegotiate,
		},
		{
			name: "签收后确认期内买家可发起协商",
			modify: func(o *model.Order) {
				o.ShippingStatus = model.ShippingStatusDelivered
				o.AvailableAt = sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true}
			},
			actor:    buyerID,
			wantMode: cancelModeNegotiate,
		},
		{
			name: "签收后确认期已过买家不可取消",
			modify: func(o *model.Order) {
				o.ShippingStatus = model.ShippingStatusDelivered
				o.AvailableAt = sql.NullTime{Time: now.Add(-time.Hour), Valid: true}
			},
			actor:   buyerID,
			wantErr: constants.ErrCancelWindowClosed,
		},
		{
			name: "无available_at时回退到签收时间加确认期",
			modify: func(o *model.Order) {
				o.ShippingStatus = model.ShippingStatusDelivered
				o.DeliveredAt = sql.NullTime{Time: now.Add(-24 * time.Hour), Valid: true}
			},
			actor:    buyerID,
			wantMode: cancelModeNegotiate,
		},
		{
			name:    "已取消订单报错",
			modify:  func(o *model.Order) { o.Status = model.OrderStatusCancelled },
			actor:   buyerID,
			wantErr: constants.ErrOrderCancelled,
		},
		{
			name:    "历史canceled拼写同样视为已取消",
			modify:  func(o *model.Order) { o.Status = "canceled" },
			actor:   buyerID,
			wantErr: constants.ErrOrderCancelled,
		},
		{
			name:    "已有待处理取消请求时不可重复发起",
			modify:  func(o *model.Order) { o.CancelStatus = model.CancelStatusRequested },
			actor:   buyerID,
			wantErr: constants.ErrCancelAlreadyPending,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order := baseOrder()
			tt.modify(order)

			mode, err := cancelMode(order, tt.actor, now, 3)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("cancelMode() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cancelMode() error = %v", err)
			}
			if mode != tt.wantMode {
				t.Errorf("cancelMode() = %q, want %q", mode, tt.wantMode)
			}
		})
	}
}

func newTestOrderService(store *stubOrderStore, refunder *stubRefunder, canceller *stubLabelCanceller, notes *stubNotifier) *OrderService {
	return &OrderService{
		orderRepo:           store,
		paymentService:      refunder,
		shippingService:     canceller,
		notificationService: notes,
		policyCfg:           config.PolicyConfig{BuyerApprovalDays: 3},
		logger:              logger.NewLogger("error"),
	}
}

// 自动清理任务可能对同一订单执行两次取消，第二次必须静默收敛且不重复退款
func TestExecuteCancellation_RepeatIsNoOp(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:           3,
		OrderNo:      "JL20260801120000DDDDDD",
		BuyerUserID:  10,
		SellerUserID: 20,
		Status:       model.OrderStatusPending,
	}}
	refunder := &stubRefunder{}
	canceller := &stubLabelCanceller{}
	notes := &stubNotifier{}
	svc := newTestOrderService(store, refunder, canceller, notes)

	for i := 0; i < 2; i++ {
		if err := svc.ExecuteCancellation(context.Background(), 3, model.ActorSystem, policy.CancelReasonPaymentExpired, false); err != nil {
			t.Fatalf("第%d次取消失败: %v", i+1, err)
		}
	}

	if refunder.calls != 1 {
		t.Fatalf("退款调用次数 = %d, 期望 1", refunder.calls)
	}
	if canceller.calls != 1 {
		t.Fatalf("运单取消调用次数 = %d, 期望 1", canceller.calls)
	}
	if notes.count(10) != 1 || notes.count(20) != 1 {
		t.Fatalf("取消通知次数异常: buyer=%d seller=%d", notes.count(10), notes.count(20))
	}
}

// 退款与运单取消相互独立：退款失败不阻塞取消，仅留日志待对账
func TestExecuteCancellation_RefundFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:           4,
		OrderNo:      "JL20260801120000EEEEEE",
		BuyerUserID:  10,
		SellerUserID: 20,
		Status:       model.OrderStatusApproved,
	}}
	refunder := &stubRefunder{err: errors.New("网关超时")}
	canceller := &stubLabelCanceller{}
	notes := &stubNotifier{}
	svc := newTestOrderService(store, refunder, canceller, notes)

	if err := svc.ExecuteCancellation(context.Background(), 4, model.ActorBuyer, policy.CancelReasonMutualAgreement, true); err != nil {
		t.Fatalf("取消不应因退款失败而失败: %v", err)
	}

	if !model.IsCancelledStatus(store.order.Status) {
		t.Fatalf("订单状态 = %s, 期望已取消", store.order.Status)
	}
	if refunder.calls != 1 {
		t.Fatalf("退款调用次数 = %d, 期望 1", refunder.calls)
	}
	if canceller.calls != 1 {
		t.Fatalf("运单取消调用次数 = %d, 期望 1", canceller.calls)
	}
	if notes.count(10) != 1 || notes.count(20) != 1 {
		t.Fatal("退款失败时仍应通知双方订单已取消")
	}
}
