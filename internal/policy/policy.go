package policy

import "jianlou/pkg/superfrete"

// 承运商接受的最小包裹规格
const (
	MinLengthCm = 16.0
	MinWidthCm  = 11.0
	MinHeightCm = 2.0
	MinWeightKg = 0.3
)

// 取消原因白名单
const (
	CancelReasonBuyerRemorse    = "buyer_remorse"             // 买家反悔
	CancelReasonNotShipped      = "not_shipped"               // 卖家未发货
	CancelReasonItemDamaged     = "item_damaged"              // 商品损坏
	CancelReasonMutualAgreement = "mutual_agreement"          // 双方协商一致
	CancelReasonPaymentExpired  = "payment_deadline_expired"  // 付款超时
	CancelReasonShippingExpired = "shipping_deadline_expired" // 发货超时
	CancelReasonOther           = "other"
)

var validCancelReasons = map[string]bool{
	CancelReasonBuyerRemorse:    true,
	CancelReasonNotShipped:      true,
	CancelReasonItemDamaged:     true,
	CancelReasonMutualAgreement: true,
	CancelReasonPaymentExpired:  true,
	CancelReasonShippingExpired: true,
	CancelReasonOther:           true,
}

// ValidCancelReason 判断取消原因是否在白名单内
func ValidCancelReason(reason string) bool {
	return validCancelReasons[reason]
}

// FeeCents 计算平台手续费，向上取整
func FeeCents(amountCents int64, feePercent int) int64 {
	if amountCents <= 0 || feePercent <= 0 {
		return 0
	}
	return (amountCents*int64(feePercent) + 99) / 100
}

// NetCents 计算卖家净收入
func NetCents(amountCents int64, feePercent int) int64 {
	return amountCents - FeeCents(amountCents, feePercent)
}

// RaiseBid 在价格上加一档加价幅度，幅度向上取整且至少加1分
func RaiseBid(priceCents int64, incrementPercent int) int64 {
	if incrementPercent <= 0 {
		return priceCents + 1
	}
	step := (priceCents*int64(incrementPercent) + 99) / 100
	if step < 1 {
		step = 1
	}
	return priceCents + step
}

// LeadingPrice 计算当前成交展示价（代理出价语义）
// 领先者只需付到压过第二高上限一档为止，封顶于自己的上限；只有一人出价时为起拍价
func LeadingPrice(topCeiling, secondCeiling, startPriceCents int64, incrementPercent int) int64 {
	if topCeiling <= 0 {
		return 0
	}
	if secondCeiling <= 0 {
		return startPriceCents
	}
	price := RaiseBid(secondCeiling, incrementPercent)
	if price > topCeiling {
		price = topCeiling
	}
	return price
}

// MinimumNextBid 计算新出价需要达到的最小上限
// 无人出价时为起拍价，否则在当前展示价上加一档
func MinimumNextBid(topCeiling, secondCeiling, startPriceCents int64, incrementPercent int) int64 {
	if topCeiling <= 0 {
		return startPriceCents
	}
	current := LeadingPrice(topCeiling, secondCeiling, startPriceCents, incrementPercent)
	return RaiseBid(current, incrementPercent)
}

// ResolvePackage 解析包裹规格，空值与低于承运商下限的值取下限
func ResolvePackage(heightCm, widthCm, lengthCm, weightKg float64) superfrete.Package {
	if heightCm < MinHeightCm {
		heightCm = MinHeightCm
	}
	if widthCm < MinWidthCm {
		widthCm = MinWidthCm
	}
	if lengthCm < MinLengthCm {
		lengthCm = MinLengthCm
	}
	if weightKg < MinWeightKg {
		weightKg = MinWeightKg
	}
	return superfrete.Package{
		Height: heightCm,
		Width:  widthCm,
		Length: lengthCm,
		Weight: weightKg,
	}
}
