package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jianlou/config"
	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/pkg/logger"
)

// 取消处理方式
const (
	cancelModeImmediate = "immediate" // 直接取消，无需对方确认
	cancelModeNegotiate = "negotiate" // 进入协商，等待对方响应
)

// OrderService 订单服务
// 承载订单状态机与取消协商流程
type OrderService struct {
	orderRepo           OrderStore
	paymentService      OrderRefunder
	shippingService     LabelCanceller
	notificationService Notifier
	policyCfg           config.PolicyConfig
	logger              *logger.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo OrderStore,
	paymentService OrderRefunder,
	shippingService LabelCanceller,
	notificationService Notifier,
	policyCfg config.PolicyConfig,
	logger *logger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:           orderRepo,
		paymentService:      paymentService,
		shippingService:     shippingService,
		notificationService: notificationService,
		policyCfg:           policyCfg,
		logger:              logger,
	}
}

// GetForUser 查询单个订单，仅买卖双方或管理员可见
func (s *OrderService) GetForUser(orderID, userID uint64, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return nil, errors.New(constants.ErrOrderNotFound)
	}
	if !isAdmin && order.BuyerUserID != userID && order.SellerUserID != userID {
		return nil, errors.New(constants.ErrOrderNotParticipant)
	}
	return order, nil
}

// ListByUser 分页查询用户参与的订单
func (s *OrderService) ListByUser(userID uint64, page, pageSize int) ([]model.Order, int, error) {
	return s.orderRepo.ListByUser(userID, page, pageSize)
}

// MarkShipped 卖家手动标记发货
func (s *OrderService) MarkShipped(ctx context.Context, orderID, sellerUserID uint64) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if order.SellerUserID != sellerUserID {
		return errors.New(constants.ErrOrderNotParticipant)
	}

	shipped, err := s.orderRepo.MarkShipped(order.ID)
	if err != nil {
		return fmt.Errorf("更新发货状态失败: %w", err)
	}
	if !shipped {
		if !model.IsApprovedStatus(order.Status) {
			return errors.New(constants.ErrOrderNotApproved)
		}
		return errors.New(constants.ErrOrderAlreadyShipped)
	}

	s.notificationService.Notify(order.BuyerUserID, "订单已发货",
		fmt.Sprintf("订单 %s 卖家已发货", order.OrderNo), "/orders/"+order.OrderNo)
	s.logger.Info("卖家标记发货", "order_no", order.OrderNo, "seller_id", sellerUserID)
	return nil
}

// ConfirmDelivered 买家确认收货
func (s *OrderService) ConfirmDelivered(ctx context.Context, orderID, buyerUserID uint64) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if order.BuyerUserID != buyerUserID {
		return errors.New(constants.ErrOrderNotParticipant)
	}

	now := time.Now()
	deadline := now.AddDate(0, 0, s.policyCfg.BuyerApprovalDays)
	delivered, err := s.orderRepo.MarkDelivered(order.ID, now, deadline, deadline)
	if err != nil {
		return fmt.Errorf("更新签收状态失败: %w", err)
	}
	if !delivered {
		return errors.New(constants.ErrOrderNotApproved)
	}

	s.notificationService.Notify(order.SellerUserID, "买家已确认收货",
		fmt.Sprintf("订单 %s 买家已确认收货，确认期结束后可申请提现", order.OrderNo),
		"/orders/"+order.OrderNo)
	s.logger.Info("买家确认收货", "order_no", order.OrderNo)
	return nil
}

// RequestCancel 发起取消
// 未支付订单直接取消；已支付订单进入双方协商
func (s *OrderService) RequestCancel(ctx context.Context, orderID, userID uint64, reason string) error {
	if !policy.ValidCancelReason(reason) {
		return errors.New(constants.ErrCancelReasonInvalid)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if order.BuyerUserID != userID && order.SellerUserID != userID {
		return errors.New(constants.ErrOrderNotParticipant)
	}

	mode, err := cancelMode(order, userID, time.Now(), s.policyCfg.BuyerApprovalDays)
	if err != nil {
		return err
	}

	if mode == cancelModeImmediate {
		actor := model.ActorBuyer
		if userID == order.SellerUserID {
			actor = model.ActorSeller
		}
		return s.ExecuteCancellation(ctx, order.ID, actor, reason, false)
	}

	requested, err := s.orderRepo.RequestCancel(order.ID, reason, userID)
	if err != nil {
		return fmt.Errorf("发起取消请求失败: %w", err)
	}
	if !requested {
		return errors.New(constants.ErrCancelAlreadyPending)
	}

	counterparty := order.SellerUserID
	if userID == order.SellerUserID {
		counterparty = order.BuyerUserID
	}
	s.notificationService.Notify(counterparty, "收到取消订单请求",
		fmt.Sprintf("订单 %s 对方请求取消，原因: %s，请及时处理", order.OrderNo, reason),
		"/orders/"+order.OrderNo)
	s.logger.Info("发起取消协商", "order_no", order.OrderNo, "requested_by", userID, "reason", reason)
	return nil
}

// RespondCancel 响应取消协商，仅被请求方可操作
func (s *OrderService) RespondCancel(ctx context.Context, orderID, userID uint64, approve bool) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if order.BuyerUserID != userID && order.SellerUserID != userID {
		return errors.New(constants.ErrOrderNotParticipant)
	}
	if order.CancelStatus != model.CancelStatusRequested {
		return errors.New(constants.ErrCancelNotRequested)
	}
	if order.CancelRequestedBy.Valid && uint64(order.CancelRequestedBy.Int64) == userID {
		return errors.New(constants.ErrCancelNotRequested)
	}

	requester := order.BuyerUserID
	if order.CancelRequestedBy.Valid && uint64(order.CancelRequestedBy.Int64) == order.SellerUserID {
		requester = order.SellerUserID
	}

	if approve {
		actor := model.ActorBuyer
		if userID == order.SellerUserID {
			actor = model.ActorSeller
		}
		reason := policy.CancelReasonMutualAgreement
		if order.CancelReason.Valid {
			reason = order.CancelReason.String
		}
		return s.ExecuteCancellation(ctx, order.ID, actor, reason, true)
	}

	rejected, err := s.orderRepo.RejectCancel(order.ID)
	if err != nil {
		return fmt.Errorf("拒绝取消请求失败: %w", err)
	}
	if !rejected {
		return errors.New(constants.ErrCancelNotRequested)
	}

	s.notificationService.Notify(requester, "取消请求被拒绝",
		fmt.Sprintf("订单 %s 对方拒绝了取消请求，订单继续执行", order.OrderNo),
		"/orders/"+order.OrderNo)
	s.logger.Info("拒绝取消协商", "order_no", order.OrderNo, "responded_by", userID)
	return nil
}

// ExecuteCancellation 执行订单取消
// 运单取消与退款相互独立、各自尽力执行；已取消的订单静默幂等
func (s *OrderService) ExecuteCancellation(ctx context.Context, orderID uint64, actor, reason string, viaNegotiation bool) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if model.IsCancelledStatus(order.Status) {
		return nil
	}

	cancelled, err := s.orderRepo.MarkCancelled(order.ID, actor, reason, viaNegotiation)
	if err != nil {
		return fmt.Errorf("更新取消状态失败: %w", err)
	}
	if !cancelled {
		// 并发取消抢先完成，视作成功
		return nil
	}

	s.shippingService.CancelForOrder(ctx, order, reason)

	if refunded, refundErr := s.paymentService.RefundOrder(ctx, order); refundErr != nil {
		s.logger.Error("订单取消退款失败，待对账处理", "order_no", order.OrderNo, "error", refundErr)
	} else if refunded {
		s.logger.Info("订单取消退款完成", "order_no", order.OrderNo)
	}

	body := fmt.Sprintf("订单 %s 已取消，原因: %s", order.OrderNo, reason)
	s.notificationService.Notify(order.BuyerUserID, "订单已取消", body, "/orders/"+order.OrderNo)
	s.notificationService.Notify(order.SellerUserID, "订单已取消", body, "/orders/"+order.OrderNo)
	s.logger.Info("订单已取消", "order_no", order.OrderNo, "actor", actor, "reason", reason)
	return nil
}

// SystemCancel 系统侧取消，供调度器超时清理使用
// 已寄出或已取消的订单直接跳过
func (s *OrderService) SystemCancel(ctx context.Context, orderID uint64, reason string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil || model.IsCancelledStatus(order.Status) {
		return nil
	}
	if order.IsShipped() {
		s.logger.Warn("订单已寄出，跳过系统取消", "order_no", order.OrderNo, "reason", reason)
		return nil
	}
	return s.ExecuteCancellation(ctx, order.ID, model.ActorSystem, reason, false)
}

// ListLabelsToSync 查询需要同步承运商状态的订单
func (s *OrderService) ListLabelsToSync(limit int) ([]model.Order, error) {
	return s.orderRepo.ListLabelsToSync(limit)
}

// ListShippingDeadlineLapsed 查询发货超时的订单
func (s *OrderService) ListShippingDeadlineLapsed(now time.Time, limit int) ([]model.Order, error) {
	return s.orderRepo.ListShippingDeadlineLapsed(now, limit)
}

// ListPaymentDeadlineLapsed 查询支付超时的订单
func (s *OrderService) ListPaymentDeadlineLapsed(now time.Time, limit int) ([]model.Order, error) {
	return s.orderRepo.ListPaymentDeadlineLapsed(now, limit)
}

// ListPendingWithPreference 查询已开支付单但长时间未支付的订单
func (s *OrderService) ListPendingWithPreference(olderThan time.Time, limit int) ([]model.Order, error) {
	return s.orderRepo.ListPendingWithPreference(olderThan, limit)
}

// ListManualAction 查询待人工处理的订单
func (s *OrderService) ListManualAction(limit int) ([]model.Order, error) {
	return s.orderRepo.ListManualAction(limit)
}

// ResolveManualAction 管理员确认人工处理完成，清除标记
func (s *OrderService) ResolveManualAction(orderID uint64) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}
	if err := s.orderRepo.ClearShippingManualAction(order.ID); err != nil {
		return fmt.Errorf("清除人工处理标记失败: %w", err)
	}
	s.logger.Info("人工处理标记已清除", "order_no", order.OrderNo)
	return nil
}

// cancelMode 取消资格判定
// 未支付可直接取消；已支付未寄出进入协商；已寄出后卖家不可取消，
// 买家仅在签收确认期内可发起协商
func cancelMode(order *model.Order, actorUserID uint64, now time.Time, buyerApprovalDays int) (string, error) {
	if model.IsCancelledStatus(order.Status) {
		return "", errors.New(constants.ErrOrderCancelled)
	}
	if order.CancelStatus == model.CancelStatusRequested {
		return "", errors.New(constants.ErrCancelAlreadyPending)
	}

	if order.Status == model.OrderStatusPending {
		return cancelModeImmediate, nil
	}

	if !order.IsShipped() {
		return cancelModeNegotiate, nil
	}

	if actorUserID == order.SellerUserID {
		return "", errors.New(constants.ErrOrderAlreadyShipped)
	}

	// 已寄出未签收，买家可发起协商
	if order.ShippingStatus != model.ShippingStatusDelivered {
		return cancelModeNegotiate, nil
	}

	deadline, ok := order.AvailableAtOrFallback(buyerApprovalDays)
	if ok && now.Before(deadline) {
		return cancelModeNegotiate, nil
	}
	return "", errors.New(constants.ErrCancelWindowClosed)
}
