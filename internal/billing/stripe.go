package billing

import (
	"context"
	"log"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"clinic-agenda-server/internal/config"
)

// StripeClient wraps the provider API: creating checkout sessions and
// resolving subscriptions for invoice events. It implements
// SubscriptionResolver.
type StripeClient struct {
	api *client.API
	cfg config.StripeConfig
}

// NewStripeClient returns a configured client. Callers must have validated
// the config first (LoadConfig fails fast on a partial billing setup).
func NewStripeClient(cfg config.StripeConfig) *StripeClient {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeClient{api: api, cfg: cfg}
}

// CreateCheckoutSession creates a subscription-mode checkout session for one
// user. The user id is embedded as client_reference_id and in both the
// session and subscription metadata so that later webhook events can be
// correlated back to the user.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, userID, email string) (sessionID, url string, err error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:         stripe.String(c.cfg.CheckoutSuccessURL),
		CancelURL:          stripe.String(c.cfg.CheckoutCancelURL),
		CustomerEmail:      stripe.String(email),
		ClientReferenceID:  stripe.String(userID),
		Metadata: map[string]string{
			"userId": userID,
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"userId": userID,
			},
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(c.cfg.EssentialPriceID),
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		log.Printf("billing: checkout session creation failed for user %s: %v", userID, err)
		return "", "", err
	}
	return session.ID, session.URL, nil
}

// Subscription fetches a subscription from the provider.
func (c *StripeClient) Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return c.api.Subscriptions.Get(subscriptionID, params)
}
