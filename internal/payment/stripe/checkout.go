package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
)

// CheckoutInput 创建订阅结账会话参数
type CheckoutInput struct {
	PriceID           string
	CustomerEmail     string
	ClientReferenceID string
	CouponID          string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

// CheckoutSession 结账会话
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// CreateCheckoutSession 创建订阅模式的 Checkout 会话
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	priceID := strings.TrimSpace(input.PriceID)
	if priceID == "" {
		return nil, fmt.Errorf("%w: price id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(input.SuccessURL) == "" || strings.TrimSpace(input.CancelURL) == "" {
		return nil, fmt.Errorf("%w: success/cancel url is required", ErrConfigInvalid)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripego.CheckoutSessionParams{
		Mode: stripego.String(string(stripego.CheckoutSessionModeSubscription)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				Price:    stripego.String(priceID),
				Quantity: stripego.Int64(1),
			},
		},
		SuccessURL: stripego.String(input.SuccessURL),
		CancelURL:  stripego.String(input.CancelURL),
		SubscriptionData: &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{},
		},
	}
	params.Context = ctx
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		params.CustomerEmail = stripego.String(email)
	}
	if ref := strings.TrimSpace(input.ClientReferenceID); ref != "" {
		params.ClientReferenceID = stripego.String(ref)
	}
	if coupon := strings.TrimSpace(input.CouponID); coupon != "" {
		params.Discounts = []*stripego.CheckoutSessionDiscountParams{
			{Coupon: stripego.String(coupon)},
		}
	}
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
		params.SubscriptionData.Metadata[key] = value
	}

	start := time.Now()
	session, err := c.api.CheckoutSessions.New(params)
	observe("checkout.create", start, err)
	if err != nil {
		return nil, wrapError("create checkout session", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
