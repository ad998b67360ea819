package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jianlou/config"
	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/policy"
	"jianlou/internal/repository"
	"jianlou/pkg/logger"

	"github.com/jmoiron/sqlx"
	"k8s.io/apimachinery/pkg/util/rand"
)

// 结算批次上限，单次最多处理的到期拍卖数
const auctionCloseBatchSize = 50

// AuctionService 拍卖服务
// 代理出价与到期结算都以商品行锁为串行化点
type AuctionService struct {
	db                  *sqlx.DB
	listingRepo         *repository.ListingRepository
	bidRepo             *repository.BidRepository
	orderRepo           *repository.OrderRepository
	notificationService *NotificationService
	policyCfg           config.PolicyConfig
	logger              *logger.Logger
}

// NewAuctionService 创建拍卖服务
func NewAuctionService(
	db *sqlx.DB,
	listingRepo *repository.ListingRepository,
	bidRepo *repository.BidRepository,
	orderRepo *repository.OrderRepository,
	notificationService *NotificationService,
	policyCfg config.PolicyConfig,
	logger *logger.Logger,
) *AuctionService {
	return &AuctionService{
		db:                  db,
		listingRepo:         listingRepo,
		bidRepo:             bidRepo,
		orderRepo:           orderRepo,
		notificationService: notificationService,
		policyCfg:           policyCfg,
		logger:              logger,
	}
}

// BidOutcome 出价结果
type BidOutcome struct {
	LeadingUserID     uint64 `json:"leading_user_id"`
	LeadingPriceCents int64  `json:"leading_price_cents"`
	YouLead           bool   `json:"you_lead"`
}

// PlaceProxyBid 代理出价
// 整个判定与写入在一个事务内完成，事务先锁商品行再读出价，
// 保证并发出价串行生效
func (s *AuctionService) PlaceProxyBid(ctx context.Context, listingID, bidderUserID uint64, maxAmountCents int64) (*BidOutcome, error) {
	if maxAmountCents <= 0 {
		return nil, errors.New(constants.ErrBidTooLow)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	listing, err := s.listingRepo.GetByIDForUpdateTx(tx, listingID)
	if err != nil {
		return nil, fmt.Errorf("锁定商品失败: %w", err)
	}
	if listing == nil {
		return nil, errors.New(constants.ErrListingNotFound)
	}
	if listing.ListingType != model.ListingTypeAuction {
		return nil, errors.New(constants.ErrListingNotAuction)
	}
	now := time.Now()
	if !listing.IsAuctionOpen(now) {
		return nil, errors.New(constants.ErrAuctionClosed)
	}
	if listing.SellerUserID == bidderUserID {
		return nil, errors.New(constants.ErrBidOwnListing)
	}

	bids, err := s.bidRepo.ListByListingTx(tx, listingID)
	if err != nil {
		return nil, fmt.Errorf("查询出价失败: %w", err)
	}
	leader, second := topCeilings(bids)

	// 领先者加价只需超过自己当前上限，其他人需达到最小出价
	if leader != nil && leader.BidderUserID == bidderUserID {
		if maxAmountCents <= leader.AmountCents {
			return nil, errors.New(constants.ErrBidTooLow)
		}
	} else {
		var topCeiling, secondCeiling int64
		if leader != nil {
			topCeiling = leader.AmountCents
		}
		if second != nil {
			secondCeiling = second.AmountCents
		}
		minBid := policy.MinimumNextBid(topCeiling, secondCeiling, listing.PriceCents, listing.AuctionIncrementPercent)
		if maxAmountCents < minBid {
			return nil, errors.New(constants.ErrBidTooLow)
		}
	}

	previousLeaderID := uint64(0)
	if leader != nil {
		previousLeaderID = leader.BidderUserID
	}

	bid := &model.Bid{
		ListingID:    listingID,
		BidderUserID: bidderUserID,
		AmountCents:  maxAmountCents,
	}
	if err := s.bidRepo.CreateTx(tx, bid); err != nil {
		return nil, fmt.Errorf("写入出价失败: %w", err)
	}

	// 重读出价重算领先者与展示价，回写缓存列
	bids, err = s.bidRepo.ListByListingTx(tx, listingID)
	if err != nil {
		return nil, fmt.Errorf("查询出价失败: %w", err)
	}
	newLeader, newSecond := topCeilings(bids)
	var secondCeiling int64
	if newSecond != nil {
		secondCeiling = newSecond.AmountCents
	}
	displayPrice := policy.LeadingPrice(newLeader.AmountCents, secondCeiling, listing.PriceCents, listing.AuctionIncrementPercent)
	if err := s.listingRepo.UpdateLeadingBidTx(tx, listingID, displayPrice, newLeader.BidderUserID); err != nil {
		return nil, fmt.Errorf("更新领先出价失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	if previousLeaderID != 0 && previousLeaderID != newLeader.BidderUserID {
		s.notificationService.Notify(previousLeaderID, "出价被超越",
			fmt.Sprintf("商品「%s」有人出价更高，当前价 %d 分", listing.Title, displayPrice),
			fmt.Sprintf("/listings/%d", listingID))
	}

	s.logger.Info("代理出价成功", "listing_id", listingID, "bidder_id", bidderUserID,
		"ceiling", maxAmountCents, "display_price", displayPrice, "leader_id", newLeader.BidderUserID)

	return &BidOutcome{
		LeadingUserID:     newLeader.BidderUserID,
		LeadingPriceCents: displayPrice,
		YouLead:           newLeader.BidderUserID == bidderUserID,
	}, nil
}

// ListBids 出价历史
func (s *AuctionService) ListBids(listingID uint64) ([]model.Bid, error) {
	listing, err := s.listingRepo.GetByID(listingID)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	if listing == nil {
		return nil, errors.New(constants.ErrListingNotFound)
	}
	return s.bidRepo.ListByListing(listingID)
}

// CloseExpiredAuctions 结算所有到期拍卖，逐件独立事务，单件失败不影响其余
func (s *AuctionService) CloseExpiredAuctions(ctx context.Context) int {
	listings, err := s.listingRepo.ListExpiredOpenAuctions(time.Now(), auctionCloseBatchSize)
	if err != nil {
		s.logger.Error("查询到期拍卖失败", "error", err)
		return 0
	}

	closed := 0
	for i := range listings {
		if err := s.closeOne(ctx, listings[i].ID, model.ActorSystem); err != nil {
			s.logger.Error("结算拍卖失败", "listing_id", listings[i].ID, "error", err)
			continue
		}
		closed++
	}
	if closed > 0 {
		s.logger.Info("拍卖结算完成", "closed", closed)
	}
	return closed
}

// CloseAuctionByID 管理员强制结算指定拍卖
func (s *AuctionService) CloseAuctionByID(ctx context.Context, listingID uint64, closedBy string) error {
	return s.closeOne(ctx, listingID, closedBy)
}

// closeOne 结算单个拍卖
// 商品行锁加状态前置条件保证重复或并发结算只生效一次
func (s *AuctionService) closeOne(ctx context.Context, listingID uint64, closedBy string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	listing, err := s.listingRepo.GetByIDForUpdateTx(tx, listingID)
	if err != nil {
		return fmt.Errorf("锁定商品失败: %w", err)
	}
	if listing == nil {
		return errors.New(constants.ErrListingNotFound)
	}
	if listing.ListingType != model.ListingTypeAuction {
		return errors.New(constants.ErrListingNotAuction)
	}
	if listing.Status != model.ListingStatusActive || listing.AuctionClosedAt.Valid {
		// 已被并发结算
		return nil
	}

	bids, err := s.bidRepo.ListByListingTx(tx, listingID)
	if err != nil {
		return fmt.Errorf("查询出价失败: %w", err)
	}
	leader, second := topCeilings(bids)

	var finalBid, winnerID sql.NullInt64
	var order *model.Order
	if leader != nil {
		var secondCeiling int64
		if second != nil {
			secondCeiling = second.AmountCents
		}
		amount := policy.LeadingPrice(leader.AmountCents, secondCeiling, listing.PriceCents, listing.AuctionIncrementPercent)
		finalBid = sql.NullInt64{Int64: amount, Valid: true}
		winnerID = sql.NullInt64{Int64: int64(leader.BidderUserID), Valid: true}

		exists, err := s.orderRepo.ExistsForListingTx(tx, listingID)
		if err != nil {
			return fmt.Errorf("查询订单失败: %w", err)
		}
		if !exists {
			order = &model.Order{
				OrderNo:        generateOrderNo(),
				ListingID:      sql.NullInt64{Int64: int64(listingID), Valid: true},
				BuyerUserID:    leader.BidderUserID,
				SellerUserID:   listing.SellerUserID,
				AmountCents:    amount,
				Status:         model.OrderStatusPending,
				ShippingStatus: model.ShippingStatusPending,
				CancelStatus:   model.CancelStatusNone,
				PayoutStatus:   model.PayoutStatusNone,
				PaymentDeadlineAt: sql.NullTime{
					Time:  time.Now().AddDate(0, 0, s.policyCfg.AuctionPaymentWindowDays),
					Valid: true,
				},
			}
			if err := s.orderRepo.CreateTx(tx, order); err != nil {
				return fmt.Errorf("创建订单失败: %w", err)
			}
		}
	}

	ok, err := s.listingRepo.CloseAuctionTx(tx, listingID, closedBy, finalBid, winnerID)
	if err != nil {
		return fmt.Errorf("关闭拍卖失败: %w", err)
	}
	if !ok {
		// 前置条件失效，回滚本次结算
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	if order != nil {
		s.notificationService.Notify(order.BuyerUserID, "恭喜中拍",
			fmt.Sprintf("您以 %d 分拍得「%s」，请在%d天内完成支付，订单号 %s",
				order.AmountCents, listing.Title, s.policyCfg.AuctionPaymentWindowDays, order.OrderNo),
			"/orders/"+order.OrderNo)
		s.notificationService.Notify(listing.SellerUserID, "拍卖成交",
			fmt.Sprintf("商品「%s」以 %d 分成交，订单号 %s", listing.Title, order.AmountCents, order.OrderNo),
			"/orders/"+order.OrderNo)
		s.logger.Info("拍卖成交", "listing_id", listingID, "order_no", order.OrderNo,
			"winner_id", order.BuyerUserID, "amount", order.AmountCents)
	} else {
		s.logger.Info("拍卖流拍关闭", "listing_id", listingID, "closed_by", closedBy)
	}
	return nil
}

// topCeilings 从排序后的出价中取领先条目与次高他人条目
// 入参须按(amount_cents desc, created_at asc, id asc)排列，
// 每个出价人的首条即其上限，同上限早出价者在前
func topCeilings(bids []model.Bid) (leader, second *model.Bid) {
	for i := range bids {
		if leader == nil {
			leader = &bids[i]
			continue
		}
		if bids[i].BidderUserID != leader.BidderUserID {
			return leader, &bids[i]
		}
	}
	return leader, nil
}

// generateOrderNo 生成订单号：JL前缀+时间戳+随机尾缀
func generateOrderNo() string {
	return fmt.Sprintf("JL%s%s", time.Now().Format("20060102150405"), strings.ToUpper(rand.String(6)))
}
