package service

import (
	"context"

	"jianlou/pkg/mercadopago"
	"jianlou/pkg/superfrete"
)

// PaymentGateway 支付网关能力，生产实现为pkg/mercadopago
type PaymentGateway interface {
	CreatePreference(ctx context.Context, req *mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, paymentID int64) (*mercadopago.Payment, error)
	SearchPaymentsByPreference(ctx context.Context, preferenceID string) ([]mercadopago.Payment, error)
	RefundPayment(ctx context.Context, paymentID int64, idempotencyKey string) (*mercadopago.Refund, error)
}

// ShippingGateway 物流网关能力，生产实现为pkg/superfrete
type ShippingGateway interface {
	QuoteFreight(ctx context.Context, req *superfrete.QuoteRequest) ([]superfrete.RateOption, error)
	CreateCartLabel(ctx context.Context, req *superfrete.ShipmentRequest) (string, error)
	CheckoutLabel(ctx context.Context, labelID string) error
	GetOrderInfo(ctx context.Context, labelID string) (*superfrete.OrderInfo, error)
	GetPrintableURL(ctx context.Context, labelID string) (string, error)
	CancelLabel(ctx context.Context, labelID, reason string) error
}
