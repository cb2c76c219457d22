package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
)

// CancelSubscription 立即取消订阅
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*SubscriptionChange, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, fmt.Errorf("%w: subscription id is required", ErrConfigInvalid)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripego.SubscriptionCancelParams{}
	params.Context = ctx

	start := time.Now()
	subscription, err := c.api.Subscriptions.Cancel(id, params)
	observe("subscription.cancel", start, err)
	if err != nil {
		return nil, wrapErrorWithMissing("cancel subscription", err, ErrSubscriptionGone)
	}
	return changeFromSubscription(subscription), nil
}

// ScheduleCancellation 在指定时间取消订阅，之前照常扣费
func (c *Client) ScheduleCancellation(ctx context.Context, subscriptionID string, cancelAt time.Time) (*SubscriptionChange, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, fmt.Errorf("%w: subscription id is required", ErrConfigInvalid)
	}
	if cancelAt.IsZero() {
		return nil, fmt.Errorf("%w: cancel_at is required", ErrConfigInvalid)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := &stripego.SubscriptionParams{
		CancelAt:          stripego.Int64(cancelAt.Unix()),
		CancelAtPeriodEnd: stripego.Bool(false),
	}
	params.Context = ctx

	start := time.Now()
	subscription, err := c.api.Subscriptions.Update(id, params)
	observe("subscription.schedule_cancel", start, err)
	if err != nil {
		return nil, wrapErrorWithMissing("schedule subscription cancel", err, ErrSubscriptionGone)
	}
	return changeFromSubscription(subscription), nil
}
