package scheduler

import (
	"context"
	"time"

	"jianlou/internal/policy"
	"jianlou/internal/service"
	"jianlou/pkg/logger"
)

// 各定时任务的扫描上限与周期
const (
	sweepBatchSize = 50

	auctionCloseInterval   = 1 * time.Minute
	labelSyncInterval      = 5 * time.Minute
	autoCancelInterval     = 10 * time.Minute
	reconciliationInterval = 10 * time.Minute

	// 创建超过该时长仍pending的带支付单订单才参与对账，避开正常支付窗口
	reconciliationMinAge = 30 * time.Minute
)

// SettlementScheduler 结算调度器
// 驱动拍卖结算、运单同步、超时清理与支付对账四类定时任务
type SettlementScheduler struct {
	auctionService  *service.AuctionService
	orderService    *service.OrderService
	shippingService *service.ShippingService
	paymentService  *service.PaymentService
	logger          *logger.Logger
	quit            chan struct{}
}

// NewSettlementScheduler 创建结算调度器实例
func NewSettlementScheduler(
	auctionService *service.AuctionService,
	orderService *service.OrderService,
	shippingService *service.ShippingService,
	paymentService *service.PaymentService,
	logger *logger.Logger,
) *SettlementScheduler {
	return &SettlementScheduler{
		auctionService:  auctionService,
		orderService:    orderService,
		shippingService: shippingService,
		paymentService:  paymentService,
		logger:          logger,
		quit:            make(chan struct{}),
	}
}

// Start 启动结算调度器
func (s *SettlementScheduler) Start() {
	go s.auctionCloseScheduler()
	go s.labelSyncScheduler()
	go s.autoCancelScheduler()
	go s.reconciliationScheduler()
	s.logger.Info("结算调度器启动")
}

// Stop 停止结算调度器
func (s *SettlementScheduler) Stop() {
	close(s.quit)
	s.logger.Info("结算调度器停止")
}

// auctionCloseScheduler 拍卖到期结算定时器
func (s *SettlementScheduler) auctionCloseScheduler() {
	s.closeExpiredAuctions()

	ticker := time.NewTicker(auctionCloseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.closeExpiredAuctions()
		case <-s.quit:
			return
		}
	}
}

// labelSyncScheduler 运单状态同步定时器
func (s *SettlementScheduler) labelSyncScheduler() {
	s.syncLabels()

	ticker := time.NewTicker(labelSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncLabels()
		case <-s.quit:
			return
		}
	}
}

// autoCancelScheduler 超时订单清理定时器
func (s *SettlementScheduler) autoCancelScheduler() {
	s.cancelLapsedOrders()

	ticker := time.NewTicker(autoCancelInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cancelLapsedOrders()
		case <-s.quit:
			return
		}
	}
}

// reconciliationScheduler 支付对账定时器，兜底丢失的回调
func (s *SettlementScheduler) reconciliationScheduler() {
	ticker := time.NewTicker(reconciliationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcilePendingPayments()
		case <-s.quit:
			return
		}
	}
}

func (s *SettlementScheduler) closeExpiredAuctions() {
	s.auctionService.CloseExpiredAuctions(context.Background())
}

// syncLabels 逐单拉取承运商状态，单件失败不影响其余
func (s *SettlementScheduler) syncLabels() {
	ctx := context.Background()
	orders, err := s.orderService.ListLabelsToSync(sweepBatchSize)
	if err != nil {
		s.logger.Error("查询待同步运单失败", "error", err)
		return
	}
	for i := range orders {
		if err := s.shippingService.RefreshLabel(ctx, &orders[i]); err != nil {
			s.logger.Error("同步运单状态失败", "order_no", orders[i].OrderNo, "error", err)
		}
	}
}

// cancelLapsedOrders 两类超时清理：卖家逾期未发货、买家逾期未支付
func (s *SettlementScheduler) cancelLapsedOrders() {
	ctx := context.Background()
	now := time.Now()

	shippingLapsed, err := s.orderService.ListShippingDeadlineLapsed(now, sweepBatchSize)
	if err != nil {
		s.logger.Error("查询发货超时订单失败", "error", err)
	} else {
		for i := range shippingLapsed {
			if err := s.orderService.SystemCancel(ctx, shippingLapsed[i].ID, policy.CancelReasonShippingExpired); err != nil {
				s.logger.Error("取消发货超时订单失败", "order_no", shippingLapsed[i].OrderNo, "error", err)
			}
		}
	}

	paymentLapsed, err := s.orderService.ListPaymentDeadlineLapsed(now, sweepBatchSize)
	if err != nil {
		s.logger.Error("查询支付超时订单失败", "error", err)
		return
	}
	for i := range paymentLapsed {
		if err := s.orderService.SystemCancel(ctx, paymentLapsed[i].ID, policy.CancelReasonPaymentExpired); err != nil {
			s.logger.Error("取消支付超时订单失败", "order_no", paymentLapsed[i].OrderNo, "error", err)
		}
	}
}

// reconcilePendingPayments 对长时间pending且已开过支付单的订单重放网关侧支付记录
func (s *SettlementScheduler) reconcilePendingPayments() {
	ctx := context.Background()
	orders, err := s.orderService.ListPendingWithPreference(time.Now().Add(-reconciliationMinAge), sweepBatchSize)
	if err != nil {
		s.logger.Error("查询待对账订单失败", "error", err)
		return
	}
	for i := range orders {
		if !orders[i].MpPreferenceID.Valid {
			continue
		}
		if err := s.paymentService.ReconcilePreference(ctx, orders[i].MpPreferenceID.String); err != nil {
			s.logger.Error("订单支付对账失败", "order_no", orders[i].OrderNo, "error", err)
		}
	}
}
