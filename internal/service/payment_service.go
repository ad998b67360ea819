package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jianlou/config"
	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/pkg/logger"
	"jianlou/pkg/mercadopago"
)

// PaymentService 支付服务
// 负责创建收银台链接、处理支付通知、主动对账与退款
type PaymentService struct {
	gateway             PaymentGateway
	orderRepo           OrderStore
	paymentEventRepo    PaymentEventStore
	notificationService Notifier
	baseURL             string
	policyCfg           config.PolicyConfig
	logger              *logger.Logger
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	gateway PaymentGateway,
	orderRepo OrderStore,
	paymentEventRepo PaymentEventStore,
	notificationService Notifier,
	baseURL string,
	policyCfg config.PolicyConfig,
	logger *logger.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:             gateway,
		orderRepo:           orderRepo,
		paymentEventRepo:    paymentEventRepo,
		notificationService: notificationService,
		baseURL:             baseURL,
		policyCfg:           policyCfg,
		logger:              logger,
	}
}

// CreateCheckout 为待支付订单创建收银台链接
func (s *PaymentService) CreateCheckout(ctx context.Context, orderID, buyerUserID uint64) (string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return "", errors.New(constants.ErrOrderNotFound)
	}
	if order.BuyerUserID != buyerUserID {
		return "", errors.New(constants.ErrOrderNotParticipant)
	}
	if order.Status != model.OrderStatusPending {
		return "", errors.New(constants.ErrOrderNotPending)
	}

	pref, err := s.gateway.CreatePreference(ctx, &mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{
			{
				Title:      fmt.Sprintf("订单 %s", order.OrderNo),
				Quantity:   1,
				UnitPrice:  float64(order.AmountCents) / 100,
				CurrencyID: "BRL",
			},
		},
		ExternalReference: order.OrderNo,
		NotificationURL:   s.baseURL + "/api/v1/payments/webhook",
		BackURLs: mercadopago.BackURLs{
			Success: s.baseURL + "/orders/" + order.OrderNo + "?pay=success",
			Pending: s.baseURL + "/orders/" + order.OrderNo + "?pay=pending",
			Failure: s.baseURL + "/orders/" + order.OrderNo + "?pay=failure",
		},
	})
	if err != nil {
		return "", fmt.Errorf("创建支付偏好失败: %w", err)
	}

	if err := s.orderRepo.SetPreference(order.ID, pref.ID); err != nil {
		return "", fmt.Errorf("记录支付偏好失败: %w", err)
	}

	return pref.InitPoint, nil
}

// ProcessPaymentNotification 处理一条支付通知
// Webhook与主动对账共用此入口，靠状态前置条件保证重复通知幂等收敛
func (s *PaymentService) ProcessPaymentNotification(ctx context.Context, paymentID int64) error {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("查询支付记录失败: %w", err)
	}
	if payment.ExternalReference == "" {
		return fmt.Errorf("支付记录 %d 缺少订单号关联", paymentID)
	}

	order, err := s.orderRepo.GetByOrderNo(payment.ExternalReference)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return fmt.Errorf("支付通知对应的订单不存在: %s", payment.ExternalReference)
	}

	rawPayload, _ := json.Marshal(payment)

	switch payment.Status {
	case mercadopago.PaymentStatusApproved:
		deadline := time.Now().AddDate(0, 0, s.policyCfg.ShippingPostDeadlineDays)
		fee := policy.FeeCents(order.AmountCents, s.policyCfg.FeePercent)
		approved, err := s.orderRepo.ApprovePayment(order.ID, fee, payment.ID, deadline)
		if err != nil {
			return fmt.Errorf("更新订单支付状态失败: %w", err)
		}
		if approved {
			// 仅首次确认时发通知，重复通知静默收敛
			s.recordEvent(order.ID, payment.ID, true, string(rawPayload))
			s.notificationService.Notify(order.SellerUserID, "订单已付款",
				fmt.Sprintf("订单 %s 买家已完成付款，请尽快发货", order.OrderNo),
				"/orders/"+order.OrderNo)
			s.notificationService.Notify(order.BuyerUserID, "付款成功",
				fmt.Sprintf("订单 %s 付款成功，等待卖家发货", order.OrderNo),
				"/orders/"+order.OrderNo)
			s.logger.Info("订单支付确认", "order_no", order.OrderNo, "payment_id", payment.ID)
		} else if err := s.handleLateCapture(ctx, order.ID, payment.ID, string(rawPayload)); err != nil {
			return err
		}
	case mercadopago.PaymentStatusRejected, mercadopago.PaymentStatusCancelled:
		// 支付失败不直接取消订单，留给付款期限清理任务统一处理
		s.recordEvent(order.ID, payment.ID, false, string(rawPayload))
		s.logger.Info("支付未成功", "order_no", order.OrderNo, "payment_id", payment.ID, "status", payment.Status)
	default:
		s.logger.Debug("支付状态无需处理", "order_no", order.OrderNo, "payment_id", payment.ID, "status", payment.Status)
	}

	return nil
}

// handleLateCapture 订单关单后才确认的迟到支付
// 订单已取消时钱已捕获但状态流转早已结束，补记审计与支付ID并立即全额退款；
// 订单处于其他状态说明只是重复通知，静默收敛
func (s *PaymentService) handleLateCapture(ctx context.Context, orderID uint64, paymentID int64, rawPayload string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil || !model.IsCancelledStatus(order.Status) {
		return nil
	}

	if !order.MpPaymentID.Valid {
		s.recordEvent(order.ID, paymentID, true, rawPayload)
		if err := s.orderRepo.SetPaymentID(order.ID, paymentID); err != nil {
			return fmt.Errorf("补记支付ID失败: %w", err)
		}
		order.MpPaymentID = sql.NullInt64{Int64: paymentID, Valid: true}
	}

	refunded, err := s.RefundOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("迟到支付退款失败: %w", err)
	}
	if refunded {
		s.notificationService.Notify(order.BuyerUserID, "订单款项已退回",
			fmt.Sprintf("订单 %s 已取消，迟到确认的付款已原路退回", order.OrderNo),
			"/orders/"+order.OrderNo)
		s.logger.Warn("订单取消后确认的迟到支付已退款", "order_no", order.OrderNo, "payment_id", paymentID)
	}
	return nil
}

// ReconcilePreference 按支付偏好主动对账
// 检索网关侧全部关联支付并重放通知处理，弥补Webhook丢失
func (s *PaymentService) ReconcilePreference(ctx context.Context, preferenceID string) error {
	order, err := s.orderRepo.GetByPreferenceID(preferenceID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}

	payments, err := s.gateway.SearchPaymentsByPreference(ctx, preferenceID)
	if err != nil {
		return fmt.Errorf("检索偏好关联支付失败: %w", err)
	}

	var lastErr error
	for _, payment := range payments {
		if err := s.ProcessPaymentNotification(ctx, payment.ID); err != nil {
			s.logger.Error("重放支付通知失败", "payment_id", payment.ID, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// ListOrderEvents 获取订单的支付事件历史，供后台对账排查
func (s *PaymentService) ListOrderEvents(orderID uint64) ([]model.PaymentEvent, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return nil, errors.New(constants.ErrOrderNotFound)
	}
	events, err := s.paymentEventRepo.ListByOrder(order.ID)
	if err != nil {
		return nil, fmt.Errorf("查询支付事件失败: %w", err)
	}
	return events, nil
}

// RefundOrder 对订单发起全额退款
// 未捕获款项时直接跳过；幂等键取订单号，网关侧保证重复调用不重复扣款
// 返回值表示本次是否实际发起了退款动作
func (s *PaymentService) RefundOrder(ctx context.Context, order *model.Order) (bool, error) {
	if !order.MpPaymentID.Valid {
		// 从未付款，无需退款
		return false, nil
	}

	refunded, err := s.paymentEventRepo.HasSuccessfulRefund(order.ID)
	if err != nil {
		return false, fmt.Errorf("查询退款记录失败: %w", err)
	}
	if refunded {
		return false, nil
	}

	idempotencyKey := "refund-" + order.OrderNo
	refund, err := s.gateway.RefundPayment(ctx, order.MpPaymentID.Int64, idempotencyKey)
	if err != nil {
		// 失败也落审计记录，保留网关原始响应供人工对账
		s.recordRefundEvent(order.ID, order.MpPaymentID, false, err.Error())
		return false, fmt.Errorf("退款失败: %w", err)
	}

	rawPayload, _ := json.Marshal(refund)
	s.recordRefundEvent(order.ID, order.MpPaymentID, true, string(rawPayload))
	s.logger.Info("订单退款成功", "order_no", order.OrderNo, "payment_id", order.MpPaymentID.Int64, "refund_id", refund.ID)
	return true, nil
}

// recordEvent 落支付事件审计记录，失败只记录日志
func (s *PaymentService) recordEvent(orderID uint64, paymentID int64, success bool, rawPayload string) {
	err := s.paymentEventRepo.Create(&model.PaymentEvent{
		OrderID:     orderID,
		EventType:   model.PaymentEventTypePayment,
		MpPaymentID: sql.NullInt64{Int64: paymentID, Valid: true},
		Success:     success,
		RawPayload:  rawPayload,
	})
	if err != nil {
		s.logger.Error("写入支付事件失败", "order_id", orderID, "error", err)
	}
}

// recordRefundEvent 落退款事件审计记录，失败只记录日志
func (s *PaymentService) recordRefundEvent(orderID uint64, paymentID sql.NullInt64, success bool, rawPayload string) {
	err := s.paymentEventRepo.Create(&model.PaymentEvent{
		OrderID:     orderID,
		EventType:   model.PaymentEventTypeRefund,
		MpPaymentID: paymentID,
		Success:     success,
		RawPayload:  rawPayload,
	})
	if err != nil {
		s.logger.Error("写入退款事件失败", "order_id", orderID, "error", err)
	}
}
