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
	"jianlou/pkg/superfrete"

	"github.com/redis/go-redis/v9"
)

// 运费报价缓存
const (
	freightQuoteCachePrefix = "freight:quote:"
	freightQuoteCacheTTL    = 30 * time.Minute
)

// ShippingService 物流服务
// 负责运费询价、运单购买与承运商状态同步
type ShippingService struct {
	gateway             ShippingGateway
	orderRepo           OrderStore
	listingRepo         *repository.ListingRepository
	userRepo            *repository.UserRepository
	notificationService Notifier
	redisClient         *redis.Client
	policyCfg           config.PolicyConfig
	logger              *logger.Logger
}

// NewShippingService 创建物流服务
func NewShippingService(
	gateway ShippingGateway,
	orderRepo OrderStore,
	listingRepo *repository.ListingRepository,
	userRepo *repository.UserRepository,
	notificationService Notifier,
	redisClient *redis.Client,
	policyCfg config.PolicyConfig,
	logger *logger.Logger,
) *ShippingService {
	return &ShippingService{
		gateway:             gateway,
		orderRepo:           orderRepo,
		listingRepo:         listingRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		redisClient:         redisClient,
		policyCfg:           policyCfg,
		logger:              logger,
	}
}

// QuoteForListing 对商品询价，Redis缓存半小时避免重复打承运商
func (s *ShippingService) QuoteForListing(ctx context.Context, listingID uint64, toPostalCode string) ([]superfrete.RateOption, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	if listing == nil {
		return nil, errors.New(constants.ErrListingNotFound)
	}

	cacheKey := fmt.Sprintf("%s%d:%s", freightQuoteCachePrefix, listingID, toPostalCode)
	if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var options []superfrete.RateOption
		if jsonErr := json.Unmarshal([]byte(cached), &options); jsonErr == nil {
			return options, nil
		}
	}

	options, err := s.gateway.QuoteFreight(ctx, &superfrete.QuoteRequest{
		FromPostalCode: listing.FromPostalCode,
		ToPostalCode:   toPostalCode,
		Package:        s.resolvePackage(listing),
	})
	if err != nil {
		return nil, fmt.Errorf("运费询价失败: %w", err)
	}

	if data, jsonErr := json.Marshal(options); jsonErr == nil {
		if cacheErr := s.redisClient.Set(ctx, cacheKey, data, freightQuoteCacheTTL).Err(); cacheErr != nil {
			s.logger.Warn("写入运费报价缓存失败", "error", cacheErr)
		}
	}

	return options, nil
}

// PurchaseLabel 为已支付订单购买运单：询价取最低价、创建、支付
func (s *ShippingService) PurchaseLabel(ctx context.Context, orderID, sellerUserID uint64, to superfrete.Address) (string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return "", errors.New(constants.ErrOrderNotFound)
	}
	if order.SellerUserID != sellerUserID {
		return "", errors.New(constants.ErrOrderNotParticipant)
	}
	if !model.IsApprovedStatus(order.Status) {
		return "", errors.New(constants.ErrOrderNotApproved)
	}
	if order.SuperfreteID.Valid {
		return "", errors.New(constants.ErrLabelAlreadyExists)
	}

	var listing *model.Listing
	if order.ListingID.Valid {
		listing, err = s.listingRepo.GetByID(uint64(order.ListingID.Int64))
		if err != nil {
			return "", fmt.Errorf("查询商品失败: %w", err)
		}
	}
	if listing == nil {
		return "", errors.New(constants.ErrListingNotFound)
	}

	seller, err := s.userRepo.GetByID(order.SellerUserID)
	if err != nil || seller == nil {
		return "", fmt.Errorf("查询卖家信息失败: %w", err)
	}

	pkg := s.resolvePackage(listing)

	options, err := s.gateway.QuoteFreight(ctx, &superfrete.QuoteRequest{
		FromPostalCode: listing.FromPostalCode,
		ToPostalCode:   to.PostalCode,
		Package:        pkg,
	})
	if err != nil {
		return "", fmt.Errorf("运费询价失败: %w", err)
	}

	// 报价已按价格升序，取最低价服务
	labelID, err := s.gateway.CreateCartLabel(ctx, &superfrete.ShipmentRequest{
		ServiceID: options[0].ServiceID,
		From: superfrete.Address{
			Name:       seller.Username,
			Email:      seller.Email,
			PostalCode: listing.FromPostalCode,
		},
		To:      to,
		Package: pkg,
		Options: superfrete.LabelOptions{
			InsuranceValue: float64(order.AmountCents) / 100,
		},
	})
	if err != nil {
		return "", fmt.Errorf("创建运单失败: %w", err)
	}

	if err := s.orderRepo.SetLabel(order.ID, labelID, superfrete.LabelStatusPending); err != nil {
		return "", fmt.Errorf("记录运单失败: %w", err)
	}

	// 支付运单；失败时运单ID已落库，后续可人工或重试支付
	if err := s.gateway.CheckoutLabel(ctx, labelID); err != nil {
		if repoErr := s.orderRepo.SetLabelError(order.ID, err.Error()); repoErr != nil {
			s.logger.Error("记录运单错误失败", "order_id", order.ID, "error", repoErr)
		}
		return labelID, fmt.Errorf("支付运单失败: %w", err)
	}

	// 支付成功后同步一次承运商状态
	if info, infoErr := s.gateway.GetOrderInfo(ctx, labelID); infoErr == nil {
		if repoErr := s.orderRepo.UpdateLabelInfo(order.ID, info.Status, info.Tracking, info.PrintURL, info.Raw); repoErr != nil {
			s.logger.Error("更新运单信息失败", "order_id", order.ID, "error", repoErr)
		}
	}

	s.logger.Info("运单购买完成", "order_no", order.OrderNo, "superfrete_id", labelID)
	return labelID, nil
}

// RefreshLabel 拉取承运商侧运单状态并推进订单物流状态
// 状态覆盖写入天然幂等，重复同步不产生副作用
func (s *ShippingService) RefreshLabel(ctx context.Context, order *model.Order) error {
	if !order.SuperfreteID.Valid {
		return errors.New(constants.ErrLabelNotFound)
	}

	info, err := s.gateway.GetOrderInfo(ctx, order.SuperfreteID.String)
	if err != nil {
		if repoErr := s.orderRepo.SetLabelError(order.ID, err.Error()); repoErr != nil {
			s.logger.Error("记录运单错误失败", "order_id", order.ID, "error", repoErr)
		}
		return fmt.Errorf("查询运单状态失败: %w", err)
	}

	if err := s.orderRepo.UpdateLabelInfo(order.ID, info.Status, info.Tracking, info.PrintURL, info.Raw); err != nil {
		return fmt.Errorf("更新运单信息失败: %w", err)
	}

	switch info.Status {
	case superfrete.LabelStatusPosted:
		shipped, err := s.orderRepo.MarkShipped(order.ID)
		if err != nil {
			return fmt.Errorf("更新发货状态失败: %w", err)
		}
		if shipped {
			s.notificationService.Notify(order.BuyerUserID, "订单已发货",
				fmt.Sprintf("订单 %s 已交寄，运单号 %s", order.OrderNo, info.Tracking),
				"/orders/"+order.OrderNo)
			s.logger.Info("订单已交寄", "order_no", order.OrderNo, "tracking", info.Tracking)
		}
	case superfrete.LabelStatusDelivered:
		// 承运商可能跳过posted直接报delivered，先补齐shipped
		if _, err := s.orderRepo.MarkShipped(order.ID); err != nil {
			return fmt.Errorf("更新发货状态失败: %w", err)
		}
		now := time.Now()
		deadline := now.AddDate(0, 0, s.policyCfg.BuyerApprovalDays)
		delivered, err := s.orderRepo.MarkDelivered(order.ID, now, deadline, deadline)
		if err != nil {
			return fmt.Errorf("更新签收状态失败: %w", err)
		}
		if delivered {
			s.notificationService.Notify(order.BuyerUserID, "订单已签收",
				fmt.Sprintf("订单 %s 已签收，如有问题请在%d天内处理", order.OrderNo, s.policyCfg.BuyerApprovalDays),
				"/orders/"+order.OrderNo)
			s.notificationService.Notify(order.SellerUserID, "订单已签收",
				fmt.Sprintf("订单 %s 买家已签收，确认期结束后可申请提现", order.OrderNo),
				"/orders/"+order.OrderNo)
			s.logger.Info("订单已签收", "order_no", order.OrderNo)
		}
	case superfrete.LabelStatusCancelled:
		if err := s.orderRepo.MarkShippingCancelled(order.ID); err != nil {
			return fmt.Errorf("更新运单取消状态失败: %w", err)
		}
	}

	return nil
}

// PrintableURL 获取运单打印链接，优先取缓存列
func (s *ShippingService) PrintableURL(ctx context.Context, orderID, sellerUserID uint64) (string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil {
		return "", errors.New(constants.ErrOrderNotFound)
	}
	if order.SellerUserID != sellerUserID {
		return "", errors.New(constants.ErrOrderNotParticipant)
	}
	if !order.SuperfreteID.Valid {
		return "", errors.New(constants.ErrLabelNotFound)
	}

	if order.SuperfretePrintURL.Valid && order.SuperfretePrintURL.String != "" {
		return order.SuperfretePrintURL.String, nil
	}

	// 运单尚未支付放行时没有打印链接
	if !order.SuperfreteStatus.Valid || order.SuperfreteStatus.String == superfrete.LabelStatusPending {
		return "", errors.New(constants.ErrLabelNotPrintable)
	}

	url, err := s.gateway.GetPrintableURL(ctx, order.SuperfreteID.String)
	if err != nil {
		return "", fmt.Errorf("获取打印链接失败: %w", err)
	}

	if repoErr := s.orderRepo.SetPrintURL(order.ID, url); repoErr != nil {
		s.logger.Error("缓存打印链接失败", "order_id", order.ID, "error", repoErr)
	}
	return url, nil
}

// CancelForOrder 订单取消时的运单处理
// 包裹已寄出时绝不自动取消运单，改为标记人工处理；
// 取消失败不向上返回错误，以免阻塞独立的退款动作
func (s *ShippingService) CancelForOrder(ctx context.Context, order *model.Order, reason string) {
	if !order.SuperfreteID.Valid {
		return
	}

	if order.IsShipped() {
		if err := s.orderRepo.SetShippingManualAction(order.ID, "包裹已寄出，运单取消需人工处理: "+reason); err != nil {
			s.logger.Error("标记人工处理失败", "order_id", order.ID, "error", err)
		}
		s.logger.Warn("包裹已寄出，跳过自动取消运单", "order_no", order.OrderNo, "shipping_status", order.ShippingStatus)
		return
	}

	if err := s.gateway.CancelLabel(ctx, order.SuperfreteID.String, reason); err != nil {
		if repoErr := s.orderRepo.SetShippingCancelFailed(order.ID, err.Error()); repoErr != nil {
			s.logger.Error("记录运单取消失败状态失败", "order_id", order.ID, "error", repoErr)
		}
		s.logger.Error("取消运单失败", "order_no", order.OrderNo, "superfrete_id", order.SuperfreteID.String, "error", err)
		return
	}

	if err := s.orderRepo.MarkShippingCancelled(order.ID); err != nil {
		s.logger.Error("更新运单取消状态失败", "order_id", order.ID, "error", err)
		return
	}
	s.logger.Info("运单已取消", "order_no", order.OrderNo, "superfrete_id", order.SuperfreteID.String)
}

// resolvePackage 解析商品包裹规格，缺省取承运商下限
func (s *ShippingService) resolvePackage(listing *model.Listing) superfrete.Package {
	return policy.ResolvePackage(
		listing.PkgHeightCm.Float64,
		listing.PkgWidthCm.Float64,
		listing.PkgLengthCm.Float64,
		listing.PkgWeightKg.Float64,
	)
}
