package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/damsblt/only-you-coaching-app-sub005/internal/payment/stripe"
)

type fakeStripeGateway struct {
	mode       string
	currency   string
	coupons    map[string]*stripe.Coupon
	created    []stripe.CouponSpec
	deleted    []string
	getErr     map[string]error
	createErr  map[string]error
	checkouts  []stripe.CheckoutInput
	checkErr   error
	event      *stripe.WebhookEvent
	webhookErr error
	canceled   []string
	scheduled  map[string]time.Time
	cancelErr  error
}

func newFakeStripeGateway(mode string) *fakeStripeGateway {
	return &fakeStripeGateway{
		mode:      mode,
		currency:  "chf",
		coupons:   map[string]*stripe.Coupon{},
		getErr:    map[string]error{},
		createErr: map[string]error{},
	}
}

func (g *fakeStripeGateway) resolver() StripeResolver {
	return func(mode string) (StripeGateway, error) {
		return g, nil
	}
}

func (g *fakeStripeGateway) Mode() string     { return g.mode }
func (g *fakeStripeGateway) Currency() string { return g.currency }

func (g *fakeStripeGateway) GetCoupon(ctx context.Context, id string) (*stripe.Coupon, error) {
	if err := g.getErr[id]; err != nil {
		return nil, err
	}
	coupon, ok := g.coupons[id]
	if !ok {
		return nil, stripe.ErrCouponNotFound
	}
	return coupon, nil
}

func (g *fakeStripeGateway) CreateCoupon(ctx context.Context, spec stripe.CouponSpec) (*stripe.Coupon, error) {
	if err := g.createErr[spec.ID]; err != nil {
		return nil, err
	}
	g.created = append(g.created, spec)
	coupon := &stripe.Coupon{ID: spec.ID, Name: spec.Name, PercentOff: spec.PercentOff, AmountOff: spec.AmountOff, Valid: true}
	g.coupons[spec.ID] = coupon
	return coupon, nil
}

func (g *fakeStripeGateway) DeleteCoupon(ctx context.Context, id string) error {
	if _, ok := g.coupons[id]; !ok {
		return stripe.ErrCouponNotFound
	}
	delete(g.coupons, id)
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *fakeStripeGateway) ListCoupons(ctx context.Context, limit int) ([]stripe.Coupon, error) {
	result := make([]stripe.Coupon, 0, len(g.coupons))
	for _, coupon := range g.coupons {
		result = append(result, *coupon)
	}
	return result, nil
}

func (g *fakeStripeGateway) CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	g.checkouts = append(g.checkouts, input)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (g *fakeStripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.event, nil
}

func (g *fakeStripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.SubscriptionChange, error) {
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	g.canceled = append(g.canceled, subscriptionID)
	return &stripe.SubscriptionChange{SubscriptionID: subscriptionID, Status: "canceled"}, nil
}

func (g *fakeStripeGateway) ScheduleCancellation(ctx context.Context, subscriptionID string, cancelAt time.Time) (*stripe.SubscriptionChange, error) {
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	if g.scheduled == nil {
		g.scheduled = map[string]time.Time{}
	}
	g.scheduled[subscriptionID] = cancelAt
	at := cancelAt
	return &stripe.SubscriptionChange{SubscriptionID: subscriptionID, Status: "active", CancelAt: &at}, nil
}

func TestResolveGatewayWithoutResolver(t *testing.T) {
	if _, err := resolveGateway(nil, "test"); !errors.Is(err, ErrStripeNotConfigured) {
		t.Fatalf("expected stripe not configured, got %v", err)
	}
	if _, err := NewStripeResolver(nil)("live"); !errors.Is(err, ErrStripeNotConfigured) {
		t.Fatalf("nil registry should not resolve, got %v", err)
	}
}
