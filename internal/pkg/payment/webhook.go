package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Authenticity errors. Only these translate into a rejected delivery; every
// verified event is acknowledged so the provider does not retry events this
// system intentionally ignores or failed to process.
var (
	ErrMissingSignature = errors.New("missing webhook signature header")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Dispatcher verifies inbound provider events against the raw request body
// and routes them by type to the reconciliation handlers.
type Dispatcher struct {
	secret     string
	service    *Service
	reconciler *Reconciler
}

func NewDispatcher(secret string, service *Service, reconciler *Reconciler) *Dispatcher {
	return &Dispatcher{secret: secret, service: service, reconciler: reconciler}
}

// Handle processes a single webhook delivery. The payload must be the exact
// bytes as sent; reserializing breaks signature verification. A non-nil
// return means the delivery was rejected for authenticity reasons; handler
// failures are logged, recorded on the stored event, and acknowledged.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	if strings.TrimSpace(sigHeader) == "" {
		return ErrMissingSignature
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, d.secret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		return ErrInvalidSignature
	}

	created, stored, err := d.service.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		// Dedup is unavailable; the order store's status transitions are the
		// second idempotency layer, so keep processing.
		log.Printf("webhook: persisting event %s failed: %v", event.ID, err)
	}
	if stored != nil && !created {
		log.Printf("webhook: duplicate delivery of event %s, already processed", event.ID)
		return nil
	}

	procErr := d.route(ctx, &event)
	if stored != nil {
		if err := d.service.MarkWebhookProcessed(ctx, stored.ID, procErr); err != nil {
			log.Printf("webhook: marking event %s processed failed: %v", event.ID, err)
		}
	}
	return nil
}

func (d *Dispatcher) route(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		sess, err := sessionFromEvent(event)
		if err != nil {
			return err
		}
		log.Printf("webhook: checkout session %s payment succeeded (%s)", sess.ID, event.Type)
		return d.reconciler.HandlePaymentSucceeded(ctx, sess)

	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		sess, err := sessionFromEvent(event)
		if err != nil {
			return err
		}
		log.Printf("webhook: checkout session %s async payment failed", sess.ID)
		return d.reconciler.HandlePaymentFailed(ctx, sess)

	case stripe.EventTypePaymentIntentSucceeded:
		// No handler yet; checkout.session.completed covers the order flow.
		log.Printf("webhook: payment intent succeeded (event %s)", event.ID)
		return nil

	default:
		log.Printf("webhook: unhandled event type %s (event %s)", event.Type, event.ID)
		return nil
	}
}

func sessionFromEvent(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session from event %s: %w", event.ID, err)
	}
	return &sess, nil
}
