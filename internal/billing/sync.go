package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

var (
	// ErrSignatureVerification means the payload/signature pair did not
	// verify against the webhook secret. The event must not be processed.
	ErrSignatureVerification = errors.New("webhook signature verification failed")

	// ErrMissingCorrelationID means an event lacks the identifiers needed
	// to map it to a user. Such events are logged and skipped, and the
	// delivery is still acknowledged so the provider does not retry forever.
	ErrMissingCorrelationID = errors.New("event is missing a correlation id")
)

// UserStore mutates the stored subscription state. Every method is an
// unconditional set keyed on event-carried IDs, which makes re-applying the
// same event a no-op (last write wins).
type UserStore interface {
	// ActivatePlan sets plan="essential" and stores both provider IDs.
	ActivatePlan(ctx context.Context, userID, customerID, subscriptionID string) error
	// DeactivatePlan clears the plan and both provider IDs.
	DeactivatePlan(ctx context.Context, userID string) error
	// AttachCustomer stores the customer ID without touching the plan.
	AttachCustomer(ctx context.Context, userID, customerID string) error
}

// EventLedger deduplicates deliveries by provider event ID.
type EventLedger interface {
	// Seen reports whether the event id has already been recorded.
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event id. Called only once the event's
	// transition has been applied; recording an already-present id is not
	// an error.
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

// SubscriptionResolver looks a subscription up at the provider; invoice
// events carry only the subscription id, the userId lives in the
// subscription's metadata.
type SubscriptionResolver interface {
	Subscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// Synchronizer reconciles stored subscription state with billing provider
// events. It owns all mutation of User.Plan and the Stripe IDs.
type Synchronizer struct {
	users         UserStore
	ledger        EventLedger
	subscriptions SubscriptionResolver
	webhookSecret string
	transitions   map[string]func(ctx context.Context, event *stripe.Event) error
}

func NewSynchronizer(users UserStore, ledger EventLedger, subscriptions SubscriptionResolver, webhookSecret string) *Synchronizer {
	s := &Synchronizer{
		users:         users,
		ledger:        ledger,
		subscriptions: subscriptions,
		webhookSecret: webhookSecret,
	}
	// Closed-but-extensible dispatch: one state-transition function per
	// event kind; anything absent from the table is acknowledged untouched.
	s.transitions = map[string]func(ctx context.Context, event *stripe.Event) error{
		"checkout.session.completed":    s.onCheckoutCompleted,
		"invoice.paid":                  s.onInvoicePaid,
		"invoice.payment_succeeded":     s.onInvoicePaid,
		"customer.subscription.created": s.onSubscriptionCreated,
		"customer.subscription.deleted": s.onSubscriptionDeleted,
		"customer.created":              s.onCustomerCreated,
	}
	return s
}

// HandleEvent verifies the raw payload's signature, deduplicates by event id
// and applies the matching state transition. A nil return means the delivery
// should be acknowledged; ErrSignatureVerification (or a store failure) means
// it should be rejected so the provider retries.
func (s *Synchronizer) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	// Verification runs against the raw bytes before any JSON decoding.
	// API version mismatches are tolerated: the account's pinned version
	// need not match the SDK's, and the signature check is unaffected.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	eventType := string(event.Type)
	seen, err := s.ledger.Seen(ctx, event.ID)
	if err != nil {
		return err
	}
	if seen {
		log.Printf("billing: duplicate delivery of event %s (%s), skipping", event.ID, eventType)
		return nil
	}

	transition, ok := s.transitions[eventType]
	if !ok {
		// Unknown event kinds are not errors; new provider event types
		// must not break the endpoint.
		log.Printf("billing: ignoring unhandled event type %s", eventType)
		return s.ledger.MarkProcessed(ctx, event.ID, eventType)
	}

	// The ledger write comes after the transition: a failed apply leaves no
	// record, so the provider's retry runs the transition again instead of
	// hitting the dedup path. A redelivery racing the ledger write can apply
	// the transition twice, which is safe because every transition is an
	// unconditional set.
	if err := transition(ctx, &event); err != nil {
		if errors.Is(err, ErrMissingCorrelationID) {
			log.Printf("billing: skipping event %s (%s): %v", event.ID, eventType, err)
			return s.ledger.MarkProcessed(ctx, event.ID, eventType)
		}
		return err
	}
	return s.ledger.MarkProcessed(ctx, event.ID, eventType)
}

func (s *Synchronizer) onCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	userID := session.ClientReferenceID
	if userID == "" {
		userID = session.Metadata["userId"]
	}
	if userID == "" {
		return fmt.Errorf("%w: checkout session %s has no userId", ErrMissingCorrelationID, session.ID)
	}
	if session.Customer == nil || session.Customer.ID == "" ||
		session.Subscription == nil || session.Subscription.ID == "" {
		return fmt.Errorf("%w: checkout session %s lacks customer or subscription", ErrMissingCorrelationID, session.ID)
	}

	return s.users.ActivatePlan(ctx, userID, session.Customer.ID, session.Subscription.ID)
}

func (s *Synchronizer) onInvoicePaid(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		return fmt.Errorf("%w: invoice %s has no subscription", ErrMissingCorrelationID, invoice.ID)
	}

	subscription, err := s.subscriptions.Subscription(ctx, invoice.Subscription.ID)
	if err != nil {
		return err
	}
	userID := subscription.Metadata["userId"]
	if userID == "" {
		return fmt.Errorf("%w: subscription %s metadata has no userId", ErrMissingCorrelationID, subscription.ID)
	}
	customerID := ""
	if subscription.Customer != nil {
		customerID = subscription.Customer.ID
	}
	if customerID == "" {
		return fmt.Errorf("%w: subscription %s has no customer", ErrMissingCorrelationID, subscription.ID)
	}

	return s.users.ActivatePlan(ctx, userID, customerID, subscription.ID)
}

func (s *Synchronizer) onSubscriptionCreated(ctx context.Context, event *stripe.Event) error {
	subscription, userID, err := subscriptionFromEvent(event)
	if err != nil {
		return err
	}
	customerID := ""
	if subscription.Customer != nil {
		customerID = subscription.Customer.ID
	}
	if customerID == "" {
		return fmt.Errorf("%w: subscription %s has no customer", ErrMissingCorrelationID, subscription.ID)
	}
	return s.users.ActivatePlan(ctx, userID, customerID, subscription.ID)
}

func (s *Synchronizer) onSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	_, userID, err := subscriptionFromEvent(event)
	if err != nil {
		return err
	}
	return s.users.DeactivatePlan(ctx, userID)
}

// onCustomerCreated attaches the customer id ahead of checkout completion.
// A side-channel update: the plan state is left alone.
func (s *Synchronizer) onCustomerCreated(ctx context.Context, event *stripe.Event) error {
	var customer stripe.Customer
	if err := json.Unmarshal(event.Data.Raw, &customer); err != nil {
		return err
	}
	userID := customer.Metadata["userId"]
	if userID == "" {
		return fmt.Errorf("%w: customer %s metadata has no userId", ErrMissingCorrelationID, customer.ID)
	}
	return s.users.AttachCustomer(ctx, userID, customer.ID)
}

func subscriptionFromEvent(event *stripe.Event) (*stripe.Subscription, string, error) {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return nil, "", err
	}
	userID := subscription.Metadata["userId"]
	if userID == "" {
		return nil, "", fmt.Errorf("%w: subscription %s metadata has no userId", ErrMissingCorrelationID, subscription.ID)
	}
	return &subscription, userID, nil
}
