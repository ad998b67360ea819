package repository

import (
	"database/sql"
	"time"

	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// ListingRepository 商品存储库
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository 创建商品存储库
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// GetByID 根据ID获取商品
func (r *ListingRepository) GetByID(id uint64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.Get(&listing, `SELECT * FROM listings WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByIDForUpdateTx 事务内锁定商品行
// 出价与结算的并发序列化点：同一商品的变更都要先拿到这把行锁
func (r *ListingRepository) GetByIDForUpdateTx(tx *sqlx.Tx, id uint64) (*model.Listing, error) {
	var listing model.Listing
	err := tx.Get(&listing, `SELECT * FROM listings WHERE id = ? FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListExpiredOpenAuctions 获取已到期但尚未结算的拍卖商品
func (r *ListingRepository) ListExpiredOpenAuctions(now time.Time, limit int) ([]model.Listing, error) {
	var listings []model.Listing
	query := `
		SELECT * FROM listings
		WHERE listing_type = 'auction'
		  AND status = 'active'
		  AND auction_closed_at IS NULL
		  AND auction_end_at IS NOT NULL
		  AND auction_end_at <= ?
		ORDER BY auction_end_at ASC LIMIT ?
	`
	err := r.db.Select(&listings, query, now, limit)
	return listings, err
}

// UpdateLeadingBidTx 事务内更新领先出价缓存列
func (r *ListingRepository) UpdateLeadingBidTx(tx *sqlx.Tx, listingID uint64, leadingBidCents int64, leadingUserID uint64) error {
	query := `
		UPDATE listings
		SET auction_leading_bid_cents = ?, auction_leading_user_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := tx.Exec(query, leadingBidCents, leadingUserID, listingID)
	return err
}

// CloseAuctionTx 事务内结算拍卖，成交置sold、流拍置closed
// 以status='active'为前置条件，重复或并发结算只有一次会命中
func (r *ListingRepository) CloseAuctionTx(tx *sqlx.Tx, listingID uint64, closedBy string, finalBidCents sql.NullInt64, winnerUserID sql.NullInt64) (bool, error) {
	status := model.ListingStatusClosed
	if winnerUserID.Valid {
		status = model.ListingStatusSold
	}
	query := `
		UPDATE listings
		SET status = ?, auction_closed_at = CURRENT_TIMESTAMP, auction_closed_by = ?,
		    auction_final_bid_cents = ?, auction_winner_user_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND listing_type = 'auction' AND status = 'active' AND auction_closed_at IS NULL
	`
	result, err := tx.Exec(query, status, closedBy, finalBidCents, winnerUserID, listingID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
