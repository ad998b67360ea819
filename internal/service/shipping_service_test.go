package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"jianlou/internal/model"
	"jianlou/pkg/logger"
)

func newTestShippingService(gw *stubShippingGateway, store *stubOrderStore, notes *stubNotifier) *ShippingService {
	return &ShippingService{
		gateway:             gw,
		orderRepo:           store,
		notificationService: notes,
		logger:              logger.NewLogger("error"),
	}
}

// 承运商侧取消失败只落对账标记，不得中断后续的退款流程
func TestCancelForOrder_GatewayFailureSetsReconcileFlag(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:             5,
		OrderNo:        "JL20260801120000FFFFFF",
		ShippingStatus: model.ShippingStatusPending,
		SuperfreteID:   sql.NullString{String: "sf-100", Valid: true},
	}}
	gw := &stubShippingGateway{cancelErr: errors.New("service unavailable")}
	svc := newTestShippingService(gw, store, &stubNotifier{})

	svc.CancelForOrder(context.Background(), store.order, "买卖双方协商一致")

	if gw.cancelCalls != 1 {
		t.Fatalf("运单取消调用次数 = %d, 期望 1", gw.cancelCalls)
	}
	if store.cancelFailedCalls != 1 {
		t.Fatalf("取消失败标记次数 = %d, 期望 1", store.cancelFailedCalls)
	}
	if store.cancelFailedMsg != "service unavailable" {
		t.Fatalf("失败原因未保留: %q", store.cancelFailedMsg)
	}
	if store.shippingCancelledCalls != 0 {
		t.Fatal("取消失败时不应标记运单已取消")
	}
}

// 包裹已寄出时绝不自动取消运单，只能转人工处理
func TestCancelForOrder_ShippedRequiresManualAction(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:             6,
		OrderNo:        "JL20260801120000GGGGGG",
		ShippingStatus: model.ShippingStatusShipped,
		SuperfreteID:   sql.NullString{String: "sf-101", Valid: true},
	}}
	gw := &stubShippingGateway{}
	svc := newTestShippingService(gw, store, &stubNotifier{})

	svc.CancelForOrder(context.Background(), store.order, "买家申请取消")

	if gw.cancelCalls != 0 {
		t.Fatal("已寄出订单不应调用承运商取消")
	}
	if store.manualActionCalls != 1 {
		t.Fatalf("人工处理标记次数 = %d, 期望 1", store.manualActionCalls)
	}
}

// 没有运单的订单取消时直接跳过承运商
func TestCancelForOrder_NoLabelIsNoOp(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:             9,
		ShippingStatus: model.ShippingStatusPending,
	}}
	gw := &stubShippingGateway{}
	svc := newTestShippingService(gw, store, &stubNotifier{})

	svc.CancelForOrder(context.Background(), store.order, "未付款自动关闭")

	if gw.cancelCalls != 0 || store.cancelFailedCalls != 0 || store.shippingCancelledCalls != 0 {
		t.Fatal("无运单订单不应有任何运单侧动作")
	}
}

// 成功取消运单后推进物流子状态
func TestCancelForOrder_SuccessMarksShippingCancelled(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{order: &model.Order{
		ID:             11,
		OrderNo:        "JL20260801120000HHHHHH",
		ShippingStatus: model.ShippingStatusPending,
		SuperfreteID:   sql.NullString{String: "sf-102", Valid: true},
	}}
	gw := &stubShippingGateway{}
	svc := newTestShippingService(gw, store, &stubNotifier{})

	svc.CancelForOrder(context.Background(), store.order, "买卖双方协商一致")

	if store.shippingCancelledCalls != 1 {
		t.Fatalf("运单取消状态更新次数 = %d, 期望 1", store.shippingCancelledCalls)
	}
	if store.order.ShippingStatus != model.ShippingStatusCancelled {
		t.Fatalf("物流状态 = %s, 期望已取消", store.order.ShippingStatus)
	}
}
