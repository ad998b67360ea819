package repository

import (
	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// BidRepository 出价存储库
type BidRepository struct {
	db *sqlx.DB
}

// NewBidRepository 创建出价存储库
func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// CreateTx 事务内追加一条出价记录
func (r *BidRepository) CreateTx(tx *sqlx.Tx, bid *model.Bid) error {
	query := `INSERT INTO bids (listing_id, bidder_user_id, amount_cents) VALUES (?, ?, ?)`
	result, err := tx.Exec(query, bid.ListingID, bid.BidderUserID, bid.AmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err == nil {
		bid.ID = uint64(id)
	}
	return nil
}

// ListByListingTx 事务内获取商品的全部出价，按排序键排列
func (r *BidRepository) ListByListingTx(tx *sqlx.Tx, listingID uint64) ([]model.Bid, error) {
	var bids []model.Bid
	query := `
		SELECT * FROM bids
		WHERE listing_id = ?
		ORDER BY amount_cents DESC, created_at ASC, id ASC
	`
	err := tx.Select(&bids, query, listingID)
	return bids, err
}

// ListByListing 获取商品的全部出价历史，按排序键排列
func (r *BidRepository) ListByListing(listingID uint64) ([]model.Bid, error) {
	var bids []model.Bid
	query := `
		SELECT * FROM bids
		WHERE listing_id = ?
		ORDER BY amount_cents DESC, created_at ASC, id ASC
	`
	err := r.db.Select(&bids, query, listingID)
	return bids, err
}
