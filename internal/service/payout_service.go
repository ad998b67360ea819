package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jianlou/config"
	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/internal/repository"
	"jianlou/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// PayoutService 提现服务
type PayoutService struct {
	db                  *sqlx.DB
	payoutRepo          *repository.PayoutRepository
	orderRepo           *repository.OrderRepository
	notificationService *NotificationService
	policyCfg           config.PolicyConfig
	logger              *logger.Logger
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	db *sqlx.DB,
	payoutRepo *repository.PayoutRepository,
	orderRepo *repository.OrderRepository,
	notificationService *NotificationService,
	policyCfg config.PolicyConfig,
	logger *logger.Logger,
) *PayoutService {
	return &PayoutService{
		db:                  db,
		payoutRepo:          payoutRepo,
		orderRepo:           orderRepo,
		notificationService: notificationService,
		policyCfg:           policyCfg,
		logger:              logger,
	}
}

// EligibleSummary 可提现概览
type EligibleSummary struct {
	Orders     []model.Order `json:"orders"`
	GrossCents int64         `json:"gross_cents"`
	FeeCents   int64         `json:"fee_cents"`
	NetCents   int64         `json:"net_cents"`
}

// Eligible 查询卖家当前可提现的订单与净额
func (s *PayoutService) Eligible(ctx context.Context, sellerUserID uint64) (*EligibleSummary, error) {
	orders, err := s.orderRepo.ListEligibleForPayout(sellerUserID, s.policyCfg.BuyerApprovalDays, time.Now())
	if err != nil {
		return nil, fmt.Errorf("查询可提现订单失败: %w", err)
	}

	summary := &EligibleSummary{Orders: orders}
	for i := range orders {
		fee := orders[i].FeeCents
		if fee == 0 {
			fee = policy.FeeCents(orders[i].AmountCents, s.policyCfg.FeePercent)
		}
		summary.GrossCents += orders[i].AmountCents
		summary.FeeCents += fee
		summary.NetCents += orders[i].AmountCents - fee
	}
	return summary, nil
}

// Request 发起提现：本次全部可提现订单打包为一个批次
// 订单加入批次以payout_status前置条件为准，并发请求只有一个成功
func (s *PayoutService) Request(ctx context.Context, sellerUserID uint64) (*model.PayoutRequest, error) {
	summary, err := s.Eligible(ctx, sellerUserID)
	if err != nil {
		return nil, err
	}
	if len(summary.Orders) == 0 {
		return nil, errors.New(constants.ErrPayoutNoEligible)
	}

	orderIDs := make([]uint64, 0, len(summary.Orders))
	for i := range summary.Orders {
		orderIDs = append(orderIDs, summary.Orders[i].ID)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	affected, err := s.orderRepo.MarkPayoutRequestedTx(tx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("标记订单提现中失败: %w", err)
	}
	if affected != int64(len(orderIDs)) {
		// 部分订单已被并发请求占用，放弃本次批次
		return nil, errors.New(constants.ErrPayoutNoEligible)
	}

	idsJSON, err := json.Marshal(orderIDs)
	if err != nil {
		return nil, fmt.Errorf("序列化订单集失败: %w", err)
	}
	payout := &model.PayoutRequest{
		SellerUserID: sellerUserID,
		AmountCents:  summary.NetCents,
		OrderIDs:     string(idsJSON),
		Status:       model.PayoutRequestStatusPending,
	}
	if err := s.payoutRepo.CreateTx(tx, payout); err != nil {
		return nil, fmt.Errorf("创建提现申请失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	s.logger.Info("提现申请已创建", "payout_id", payout.ID, "seller_id", sellerUserID,
		"orders", len(orderIDs), "net_cents", summary.NetCents)
	return payout, nil
}

// MarkPaid 管理员确认打款
func (s *PayoutService) MarkPaid(ctx context.Context, payoutID, adminID uint64) error {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return fmt.Errorf("查询提现申请失败: %w", err)
	}
	if payout == nil {
		return errors.New(constants.ErrPayoutNotFound)
	}

	orderIDs, err := payout.ParseOrderIDs()
	if err != nil {
		return fmt.Errorf("解析订单集失败: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.payoutRepo.MarkPaidTx(tx, payoutID)
	if err != nil {
		return fmt.Errorf("更新提现状态失败: %w", err)
	}
	if !ok {
		return errors.New(constants.ErrPayoutNotPending)
	}
	if err := s.orderRepo.MarkPayoutPaidTx(tx, orderIDs); err != nil {
		return fmt.Errorf("更新订单打款状态失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	s.notificationService.Notify(payout.SellerUserID, "提现已打款",
		fmt.Sprintf("您的提现申请 #%d 已打款，金额 %d 分", payout.ID, payout.AmountCents), "/payouts")
	s.logger.Info("提现已打款", "payout_id", payoutID, "admin_id", adminID, "amount_cents", payout.AmountCents)
	return nil
}

// Reject 管理员驳回提现，订单恢复可重新打包
func (s *PayoutService) Reject(ctx context.Context, payoutID, adminID uint64, reason string) error {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return fmt.Errorf("查询提现申请失败: %w", err)
	}
	if payout == nil {
		return errors.New(constants.ErrPayoutNotFound)
	}

	orderIDs, err := payout.ParseOrderIDs()
	if err != nil {
		return fmt.Errorf("解析订单集失败: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.payoutRepo.MarkRejectedTx(tx, payoutID, reason)
	if err != nil {
		return fmt.Errorf("更新提现状态失败: %w", err)
	}
	if !ok {
		return errors.New(constants.ErrPayoutNotPending)
	}
	if err := s.orderRepo.ResetPayoutStatusTx(tx, orderIDs); err != nil {
		return fmt.Errorf("恢复订单提现状态失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	s.notificationService.Notify(payout.SellerUserID, "提现被驳回",
		fmt.Sprintf("您的提现申请 #%d 被驳回，原因: %s，相关订单可重新申请", payout.ID, reason), "/payouts")
	s.logger.Info("提现已驳回", "payout_id", payoutID, "admin_id", adminID, "reason", reason)
	return nil
}

// HoldOrder 管理员冻结订单资金，纠纷期间暂停提现资格
func (s *PayoutService) HoldOrder(orderID, adminID uint64) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}

	held, err := s.orderRepo.SetPayoutHold(order.ID)
	if err != nil {
		return fmt.Errorf("冻结订单资金失败: %w", err)
	}
	if !held {
		return errors.New(constants.ErrPayoutHoldRejected)
	}

	s.logger.Info("订单资金已冻结", "order_no", order.OrderNo, "admin_id", adminID)
	return nil
}

// ReleaseOrderHold 管理员解除资金冻结
func (s *PayoutService) ReleaseOrderHold(orderID, adminID uint64) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return errors.New(constants.ErrOrderNotFound)
	}

	released, err := s.orderRepo.ReleasePayoutHold(order.ID)
	if err != nil {
		return fmt.Errorf("解除资金冻结失败: %w", err)
	}
	if !released {
		return errors.New(constants.ErrPayoutNotOnHold)
	}

	s.logger.Info("订单资金冻结已解除", "order_no", order.OrderNo, "admin_id", adminID)
	return nil
}

// ListBySeller 卖家提现记录
func (s *PayoutService) ListBySeller(sellerUserID uint64) ([]model.PayoutRequest, error) {
	return s.payoutRepo.ListBySeller(sellerUserID)
}

// ListByStatus 按状态查询提现申请，供管理端使用
func (s *PayoutService) ListByStatus(status string, limit int) ([]model.PayoutRequest, error) {
	return s.payoutRepo.ListByStatus(status, limit)
}
