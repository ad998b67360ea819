package constants

// 通用错误消息
const (
	// 认证相关错误
	ErrUnauthorized           = "未授权，请先登录"
	ErrInvalidToken           = "无效的Token"
	ErrInsufficientPermission = "权限不足"

	// 参数相关错误
	ErrInvalidParams  = "参数错误"
	ErrInvalidRequest = "无效请求格式"

	// 订单相关错误
	ErrOrderNotFound        = "订单不存在"
	ErrOrderNotParticipant  = "您不是该订单的买家或卖家"
	ErrOrderNotPending      = "订单不在待支付状态"
	ErrOrderNotApproved     = "订单未完成支付"
	ErrOrderAlreadyShipped  = "订单已发货，无法自动取消，请联系平台人工处理"
	ErrOrderCancelled       = "订单已取消"
	ErrCancelReasonInvalid  = "无效的取消原因"
	ErrCancelNotRequested   = "订单没有待处理的取消请求"
	ErrCancelAlreadyPending = "已存在待处理的取消请求"
	ErrCancelWindowClosed   = "已超过确认收货后的可取消期限"

	// 拍卖相关错误
	ErrListingNotFound   = "商品不存在"
	ErrListingNotAuction = "该商品不是拍卖商品"
	ErrAuctionClosed     = "拍卖已结束"
	ErrBidOwnListing     = "不能对自己的商品出价"
	ErrBidTooLow         = "出价低于当前最低加价要求"

	// 运单相关错误
	ErrLabelAlreadyExists = "订单已存在运单"
	ErrLabelNotFound      = "订单尚未创建运单"
	ErrLabelNotPrintable  = "运单尚未放行，无法打印"

	// 提现相关错误
	ErrPayoutNotFound     = "提现申请不存在"
	ErrPayoutNoEligible   = "当前没有可提现的订单"
	ErrPayoutNotPending   = "提现申请不在待处理状态"
	ErrPayoutNotRequested = "提现申请状态不允许该操作"
	ErrPayoutHoldRejected = "订单已进入提现流程，无法冻结资金"
	ErrPayoutNotOnHold    = "订单资金未处于冻结状态"

	// 系统错误
	ErrInternalServer = "服务器内部错误"
)

// 成功消息
const (
	SuccessCreate = "创建成功"
	SuccessUpdate = "更新成功"
	SuccessGet    = "获取成功"
)
