package model

import (
	"database/sql"
	"time"
)

// 商品类型
const (
	ListingTypeFixed   = "fixed"   // 一口价
	ListingTypeAuction = "auction" // 拍卖
)

// 商品状态
const (
	ListingStatusActive = "active" // 在售/拍卖中
	ListingStatusClosed = "closed" // 拍卖已结束
	ListingStatusSold   = "sold"   // 已售出
)

// Listing 商品模型（含拍卖字段）
type Listing struct {
	ID           uint64  `db:"id" json:"id"`
	SellerUserID uint64  `db:"seller_user_id" json:"seller_user_id"`
	Title        string  `db:"title" json:"title"`
	PriceCents   int64   `db:"price_cents" json:"price_cents"` // 一口价价格，拍卖时为起拍价
	ListingType  string  `db:"listing_type" json:"listing_type"`
	Status       string  `db:"status" json:"status"`

	// 拍卖字段
	AuctionEndAt            sql.NullTime   `db:"auction_end_at" json:"auction_end_at,omitempty"`
	AuctionIncrementPercent int            `db:"auction_increment_percent" json:"auction_increment_percent"`
	AuctionClosedAt         sql.NullTime   `db:"auction_closed_at" json:"auction_closed_at,omitempty"`
	AuctionClosedBy         sql.NullString `db:"auction_closed_by" json:"auction_closed_by,omitempty"`
	AuctionFinalBidCents    sql.NullInt64  `db:"auction_final_bid_cents" json:"auction_final_bid_cents,omitempty"`
	AuctionWinnerUserID     sql.NullInt64  `db:"auction_winner_user_id" json:"auction_winner_user_id,omitempty"`

	// 领先出价缓存列，由出价事务内维护
	AuctionLeadingBidCents sql.NullInt64 `db:"auction_leading_bid_cents" json:"auction_leading_bid_cents,omitempty"`
	AuctionLeadingUserID   sql.NullInt64 `db:"auction_leading_user_id" json:"auction_leading_user_id,omitempty"`

	// 包裹尺寸，空值时取承运商最低标准
	PkgHeightCm sql.NullFloat64 `db:"pkg_height_cm" json:"pkg_height_cm,omitempty"`
	PkgWidthCm  sql.NullFloat64 `db:"pkg_width_cm" json:"pkg_width_cm,omitempty"`
	PkgLengthCm sql.NullFloat64 `db:"pkg_length_cm" json:"pkg_length_cm,omitempty"`
	PkgWeightKg sql.NullFloat64 `db:"pkg_weight_kg" json:"pkg_weight_kg,omitempty"`

	FromPostalCode string `db:"from_postal_code" json:"from_postal_code"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsAuctionOpen 拍卖是否仍可出价
func (l *Listing) IsAuctionOpen(now time.Time) bool {
	if l.ListingType != ListingTypeAuction || l.Status != ListingStatusActive {
		return false
	}
	if l.AuctionClosedAt.Valid {
		return false
	}
	return l.AuctionEndAt.Valid && now.Before(l.AuctionEndAt.Time)
}

// Bid 出价记录，仅追加不修改
// amount_cents为出价人愿付上限（代理出价），排序键为(amount_cents desc, created_at asc)
type Bid struct {
	ID           uint64    `db:"id" json:"id"`
	ListingID    uint64    `db:"listing_id" json:"listing_id"`
	BidderUserID uint64    `db:"bidder_user_id" json:"bidder_user_id"`
	AmountCents  int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
