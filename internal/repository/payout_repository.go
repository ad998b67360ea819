package repository

import (
	"database/sql"

	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// PayoutRepository 提现申请存储库
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository 创建提现申请存储库
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// CreateTx 事务内创建提现申请
func (r *PayoutRepository) CreateTx(tx *sqlx.Tx, payout *model.PayoutRequest) error {
	query := `
		INSERT INTO payout_requests (seller_user_id, amount_cents, order_ids, status)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.Exec(query, payout.SellerUserID, payout.AmountCents, payout.OrderIDs, payout.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err == nil {
		payout.ID = uint64(id)
	}
	return nil
}

// GetByID 根据ID获取提现申请
func (r *PayoutRepository) GetByID(id uint64) (*model.PayoutRequest, error) {
	var payout model.PayoutRequest
	err := r.db.Get(&payout, `SELECT * FROM payout_requests WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// ListBySeller 获取卖家的提现申请记录
func (r *PayoutRepository) ListBySeller(sellerUserID uint64) ([]model.PayoutRequest, error) {
	var payouts []model.PayoutRequest
	query := `SELECT * FROM payout_requests WHERE seller_user_id = ? ORDER BY created_at DESC`
	err := r.db.Select(&payouts, query, sellerUserID)
	return payouts, err
}

// ListByStatus 按状态获取提现申请
func (r *PayoutRepository) ListByStatus(status string, limit int) ([]model.PayoutRequest, error) {
	var payouts []model.PayoutRequest
	query := `SELECT * FROM payout_requests WHERE status = ? ORDER BY created_at ASC LIMIT ?`
	err := r.db.Select(&payouts, query, status, limit)
	return payouts, err
}

// MarkPaidTx 事务内标记提现申请已打款，仅pending状态可转移
func (r *PayoutRepository) MarkPaidTx(tx *sqlx.Tx, id uint64) (bool, error) {
	query := `
		UPDATE payout_requests
		SET status = ?, paid_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`
	result, err := tx.Exec(query, model.PayoutRequestStatusPaid, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkRejectedTx 事务内驳回提现申请，仅pending状态可转移
func (r *PayoutRepository) MarkRejectedTx(tx *sqlx.Tx, id uint64, reason string) (bool, error) {
	query := `
		UPDATE payout_requests
		SET status = ?, reject_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`
	result, err := tx.Exec(query, model.PayoutRequestStatusRejected, reason, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
