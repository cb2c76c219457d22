package service

import (
	"context"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
)

// StripeGateway 服务层依赖的 Stripe 能力
type StripeGateway interface {
	Mode() string
	Currency() string
	GetCoupon(ctx context.Context, id string) (*stripe.Coupon, error)
	CreateCoupon(ctx context.Context, spec stripe.CouponSpec) (*stripe.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) error
	ListCoupons(ctx context.Context, limit int) ([]stripe.Coupon, error)
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error)
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.SubscriptionChange, error)
	ScheduleCancellation(ctx context.Context, subscriptionID string, cancelAt time.Time) (*stripe.SubscriptionChange, error)
}

// StripeResolver 按模式（test / live）获取网关
type StripeResolver func(mode string) (StripeGateway, error)

// NewStripeResolver 基于客户端注册表构造解析器
func NewStripeResolver(registry *stripe.Registry) StripeResolver {
	return func(mode string) (StripeGateway, error) {
		if registry == nil {
			return nil, ErrStripeNotConfigured
		}
		client, err := registry.Client(mode)
		if err != nil {
			return nil, ErrStripeNotConfigured
		}
		return client, nil
	}
}

func resolveGateway(resolver StripeResolver, mode string) (StripeGateway, error) {
	if resolver == nil {
		return nil, ErrStripeNotConfigured
	}
	return resolver(mode)
}
