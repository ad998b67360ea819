package repository

import (
	"database/sql"
	"time"

	"jianlou/internal/model"

	"github.com/jmoiron/sqlx"
)

// OrderRepository 订单存储库
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository 创建订单存储库
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateTx 在事务内创建订单
func (r *OrderRepository) CreateTx(tx *sqlx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			order_no, listing_id, buyer_user_id, seller_user_id, amount_cents, fee_cents,
			status, shipping_status, cancel_status, payout_status, payment_deadline_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(
		query,
		order.OrderNo,
		order.ListingID,
		order.BuyerUserID,
		order.SellerUserID,
		order.AmountCents,
		order.FeeCents,
		order.Status,
		order.ShippingStatus,
		order.CancelStatus,
		order.PayoutStatus,
		order.PaymentDeadlineAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err == nil {
		order.ID = uint64(id)
	}
	return nil
}

// GetByID 根据ID获取订单
func (r *OrderRepository) GetByID(id uint64) (*model.Order, error) {
	var order model.Order
	err := r.db.Get(&order, `SELECT * FROM orders WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.Get(&order, `SELECT * FROM orders WHERE order_no = ?`, orderNo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByPreferenceID 根据支付偏好ID获取订单
func (r *OrderRepository) GetByPreferenceID(preferenceID string) (*model.Order, error) {
	var order model.Order
	err := r.db.Get(&order, `SELECT * FROM orders WHERE mp_preference_id = ?`, preferenceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ExistsForListingTx 事务内检查某商品是否已生成订单（拍卖结算幂等保护）
func (r *OrderRepository) ExistsForListingTx(tx *sqlx.Tx, listingID uint64) (bool, error) {
	var count int
	err := tx.Get(&count, `SELECT COUNT(*) FROM orders WHERE listing_id = ?`, listingID)
	return count > 0, err
}

// ListByUser 获取用户参与的订单（买家或卖家），分页按创建时间倒序
func (r *OrderRepository) ListByUser(userID uint64, page, pageSize int) ([]model.Order, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE buyer_user_id = ? OR seller_user_id = ?`
	if err := r.db.Get(&total, countQuery, userID, userID); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	offset := (page - 1) * pageSize
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE buyer_user_id = ? OR seller_user_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	if err := r.db.Select(&orders, query, userID, userID, pageSize, offset); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// SetPreference 记录支付偏好ID
func (r *OrderRepository) SetPreference(orderID uint64, preferenceID string) error {
	query := `UPDATE orders SET mp_preference_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, preferenceID, orderID)
	return err
}

// SetPaymentID 补记支付ID
// 订单取消后才确认的迟到支付也要留下支付关联，否则无法退款
func (r *OrderRepository) SetPaymentID(orderID uint64, paymentID int64) error {
	query := `UPDATE orders SET mp_payment_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, paymentID, orderID)
	return err
}

// ApprovePayment 支付确认：pending→approved，写入手续费、支付ID与发货期限
// 以状态前置条件保证幂等，重复确认返回false
func (r *OrderRepository) ApprovePayment(orderID uint64, feeCents int64, paymentID int64, shippingPostDeadlineAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = ?, fee_cents = ?, mp_payment_id = ?, shipping_post_deadline_at = ?,
		    payment_deadline_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`
	result, err := r.db.Exec(query, model.OrderStatusApproved, feeCents, paymentID, shippingPostDeadlineAt, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkShipped 标记已发货，要求已支付且物流仍为待发货
func (r *OrderRepository) MarkShipped(orderID uint64) (bool, error) {
	query := `
		UPDATE orders
		SET shipping_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('approved', 'paid') AND shipping_status = 'pending'
	`
	result, err := r.db.Exec(query, model.ShippingStatusShipped, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkDelivered 标记已签收，写入签收时间、资金可用时间与买家确认期限
func (r *OrderRepository) MarkDelivered(orderID uint64, deliveredAt, availableAt, approvalDeadlineAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET shipping_status = ?, delivered_at = ?, available_at = ?, buyer_approval_deadline_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND shipping_status = 'shipped'
	`
	result, err := r.db.Exec(query, model.ShippingStatusDelivered, deliveredAt, availableAt, approvalDeadlineAt, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// RequestCancel 发起取消协商，要求当前没有待处理的取消请求
func (r *OrderRepository) RequestCancel(orderID uint64, reason string, requestedBy uint64) (bool, error) {
	query := `
		UPDATE orders
		SET cancel_status = ?, cancel_reason = ?, cancel_requested_by = ?,
		    cancel_requested_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND cancel_status IN ('none', 'rejected')
		  AND status NOT IN ('cancelled', 'canceled')
	`
	result, err := r.db.Exec(query, model.CancelStatusRequested, reason, requestedBy, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// RejectCancel 拒绝取消请求，订单继续履约
func (r *OrderRepository) RejectCancel(orderID uint64) (bool, error) {
	query := `
		UPDATE orders
		SET cancel_status = ?, cancel_response_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND cancel_status = 'requested'
	`
	result, err := r.db.Exec(query, model.CancelStatusRejected, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkCancelled 订单终态取消
// 状态前置条件保证幂等：已取消订单再次取消返回false，调用方静默跳过
func (r *OrderRepository) MarkCancelled(orderID uint64, actor, reason string, viaNegotiation bool) (bool, error) {
	cancelStatus := model.CancelStatusNone
	if viaNegotiation {
		cancelStatus = model.CancelStatusApproved
	}
	query := `
		UPDATE orders
		SET status = ?, cancel_status = ?, cancelled_by = ?, cancel_reason = ?,
		    cancel_response_at = CASE WHEN ? THEN CURRENT_TIMESTAMP ELSE cancel_response_at END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status NOT IN ('cancelled', 'canceled')
	`
	result, err := r.db.Exec(query, model.OrderStatusCancelled, cancelStatus, actor, reason, viaNegotiation, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// SetLabel 记录新建运单的ID与初始状态
func (r *OrderRepository) SetLabel(orderID uint64, superfreteID, status string) error {
	query := `
		UPDATE orders
		SET superfrete_id = ?, superfrete_status = ?, superfrete_last_error = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, superfreteID, status, orderID)
	return err
}

// UpdateLabelInfo 覆盖写入承运商侧运单状态（天然幂等）
func (r *OrderRepository) UpdateLabelInfo(orderID uint64, status, tracking, printURL, rawInfo string) error {
	query := `
		UPDATE orders
		SET superfrete_status = ?,
		    superfrete_tracking = NULLIF(?, ''),
		    superfrete_print_url = NULLIF(?, ''),
		    superfrete_raw_info = ?,
		    superfrete_last_error = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, status, tracking, printURL, rawInfo, orderID)
	return err
}

// SetLabelError 记录运单操作失败信息
func (r *OrderRepository) SetLabelError(orderID uint64, errMsg string) error {
	query := `UPDATE orders SET superfrete_last_error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, errMsg, orderID)
	return err
}

// SetPrintURL 缓存运单打印链接
func (r *OrderRepository) SetPrintURL(orderID uint64, printURL string) error {
	query := `UPDATE orders SET superfrete_print_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, printURL, orderID)
	return err
}

// SetShippingCancelFailed 标记运单取消失败，留待人工对账
func (r *OrderRepository) SetShippingCancelFailed(orderID uint64, errMsg string) error {
	query := `
		UPDATE orders
		SET shipping_cancel_failed = 1, superfrete_last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, errMsg, orderID)
	return err
}

// SetShippingManualAction 标记需要人工处理物流（包裹已寄出时禁止自动取消运单）
func (r *OrderRepository) SetShippingManualAction(orderID uint64, reason string) error {
	query := `
		UPDATE orders
		SET shipping_manual_action = 1, superfrete_last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, reason, orderID)
	return err
}

// ClearShippingManualAction 人工处理完成后清除标记
func (r *OrderRepository) ClearShippingManualAction(orderID uint64) error {
	query := `
		UPDATE orders
		SET shipping_manual_action = 0, shipping_cancel_failed = 0, superfrete_last_error = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, orderID)
	return err
}

// MarkShippingCancelled 运单成功取消后更新物流子状态
func (r *OrderRepository) MarkShippingCancelled(orderID uint64) error {
	query := `
		UPDATE orders
		SET shipping_status = ?, superfrete_status = ?, shipping_canceled_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND shipping_status = 'pending'
	`
	_, err := r.db.Exec(query, model.ShippingStatusCancelled, "canceled", orderID)
	return err
}

// ListLabelsToSync 获取需要同步承运商状态的订单：已支付、有运单、尚未到终态
func (r *OrderRepository) ListLabelsToSync(limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE status IN ('approved', 'paid')
		  AND superfrete_id IS NOT NULL
		  AND (superfrete_status IS NULL OR superfrete_status NOT IN ('delivered', 'canceled'))
		ORDER BY updated_at ASC LIMIT ?
	`
	err := r.db.Select(&orders, query, limit)
	return orders, err
}

// ListShippingDeadlineLapsed 获取发货超时待自动取消的订单
func (r *OrderRepository) ListShippingDeadlineLapsed(now time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE status IN ('approved', 'paid')
		  AND shipping_status = 'pending'
		  AND shipping_post_deadline_at IS NOT NULL
		  AND shipping_post_deadline_at <= ?
		ORDER BY shipping_post_deadline_at ASC LIMIT ?
	`
	err := r.db.Select(&orders, query, now, limit)
	return orders, err
}

// ListPaymentDeadlineLapsed 获取付款超时待取消的拍卖订单
func (r *OrderRepository) ListPaymentDeadlineLapsed(now time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE status = 'pending'
		  AND payment_deadline_at IS NOT NULL
		  AND payment_deadline_at <= ?
		ORDER BY payment_deadline_at ASC LIMIT ?
	`
	err := r.db.Select(&orders, query, now, limit)
	return orders, err
}

// ListPendingWithPreference 获取创建较久仍未支付、需要主动对账的订单
func (r *OrderRepository) ListPendingWithPreference(olderThan time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE status = 'pending'
		  AND mp_preference_id IS NOT NULL
		  AND created_at <= ?
		ORDER BY created_at ASC LIMIT ?
	`
	err := r.db.Select(&orders, query, olderThan, limit)
	return orders, err
}

// ListManualAction 获取需要人工跟进的订单
func (r *OrderRepository) ListManualAction(limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE shipping_manual_action = 1 OR shipping_cancel_failed = 1
		ORDER BY updated_at ASC LIMIT ?
	`
	err := r.db.Select(&orders, query, limit)
	return orders, err
}

// ListEligibleForPayout 获取卖家可提现订单
// 资金可用时间按 available_at → buyer_approval_deadline_at → delivered_at+确认期 依次回退
func (r *OrderRepository) ListEligibleForPayout(sellerUserID uint64, buyerApprovalDays int, now time.Time) ([]model.Order, error) {
	var orders []model.Order
	query := `
		SELECT * FROM orders
		WHERE seller_user_id = ?
		  AND status IN ('approved', 'paid')
		  AND payout_status NOT IN ('hold', 'requested', 'paid')
		  AND delivered_at IS NOT NULL
		  AND COALESCE(available_at, buyer_approval_deadline_at, DATE_ADD(delivered_at, INTERVAL ? DAY)) <= ?
		ORDER BY delivered_at ASC
	`
	err := r.db.Select(&orders, query, sellerUserID, buyerApprovalDays, now)
	return orders, err
}

// SetPayoutHold 冻结订单资金，纠纷处理期间排除出提现资格
// 已进入提现流程的订单不可冻结
func (r *OrderRepository) SetPayoutHold(orderID uint64) (bool, error) {
	query := `
		UPDATE orders
		SET payout_status = 'hold', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payout_status = 'none'
	`
	result, err := r.db.Exec(query, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ReleasePayoutHold 解除资金冻结，订单恢复可提现
func (r *OrderRepository) ReleasePayoutHold(orderID uint64) (bool, error) {
	query := `
		UPDATE orders
		SET payout_status = 'none', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payout_status = 'hold'
	`
	result, err := r.db.Exec(query, orderID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkPayoutRequestedTx 事务内将订单标记为已申请提现
// 前置条件排除已申请/已打款的订单，返回实际命中的行数
func (r *OrderRepository) MarkPayoutRequestedTx(tx *sqlx.Tx, orderIDs []uint64) (int64, error) {
	query, args, err := sqlx.In(`
		UPDATE orders
		SET payout_status = 'requested', payout_requested_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id IN (?) AND payout_status NOT IN ('hold', 'requested', 'paid')
	`, orderIDs)
	if err != nil {
		return 0, err
	}
	result, err := tx.Exec(tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MarkPayoutPaidTx 事务内将订单标记为已打款
func (r *OrderRepository) MarkPayoutPaidTx(tx *sqlx.Tx, orderIDs []uint64) error {
	query, args, err := sqlx.In(`
		UPDATE orders
		SET payout_status = 'paid', payout_paid_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id IN (?) AND payout_status = 'requested'
	`, orderIDs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(tx.Rebind(query), args...)
	return err
}

// ResetPayoutStatusTx 提现申请被驳回后将订单恢复为可再次申请
func (r *OrderRepository) ResetPayoutStatusTx(tx *sqlx.Tx, orderIDs []uint64) error {
	query, args, err := sqlx.In(`
		UPDATE orders
		SET payout_status = 'none', payout_requested_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id IN (?) AND payout_status = 'requested'
	`, orderIDs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(tx.Rebind(query), args...)
	return err
}
