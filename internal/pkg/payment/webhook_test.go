package payment

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/shopfox/shopfox/app/models"
)

const testWebhookSecret = "whsec_test_secret"

// fakeRepository is an in-memory Repository used across the payment tests.
type fakeRepository struct {
	events     map[string]*models.PaymentWebhookEvent
	orders     map[string]*models.Order
	nextID     uint
	failEvents bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events: make(map[string]*models.PaymentWebhookEvent),
		orders: make(map[string]*models.Order),
	}
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	if r.failEvents {
		return false, nil, fmt.Errorf("events table unavailable")
	}
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, event := range r.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("webhook event %d not found", id)
}

func (r *fakeRepository) GetOrderBySessionID(sessionID string) (*models.Order, error) {
	order, ok := r.orders[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *fakeRepository) CreateOrder(order *models.Order) error {
	if _, ok := r.orders[order.ProviderSessionID]; ok {
		return fmt.Errorf("duplicate order for session %s", order.ProviderSessionID)
	}
	r.orders[order.ProviderSessionID] = order
	return nil
}

func (r *fakeRepository) SaveOrder(order *models.Order) error {
	r.orders[order.ProviderSessionID] = order
	return nil
}

// recordingOrderStore records outcome transitions per session id.
type recordingOrderStore struct {
	paid   []string
	failed []string
	err    error
}

func (s *recordingOrderStore) MarkPaid(_ context.Context, sessionID string, _ map[string]string, _ string, _ int64) error {
	s.paid = append(s.paid, sessionID)
	return s.err
}

func (s *recordingOrderStore) MarkFailed(_ context.Context, sessionID string, _ map[string]string, _ string) error {
	s.failed = append(s.failed, sessionID)
	return s.err
}

type recordingNotifier struct {
	confirmations []string
	failures      []string
	err           error
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, email, _ string, _ int64) error {
	n.confirmations = append(n.confirmations, email)
	return n.err
}

func (n *recordingNotifier) SendPaymentFailure(_ context.Context, email, _ string) error {
	n.failures = append(n.failures, email)
	return n.err
}

type recordingInventory struct {
	decrements map[string]int
	err        error
}

func (i *recordingInventory) DecrementStock(_ context.Context, productID string, quantity int) error {
	if i.decrements == nil {
		i.decrements = make(map[string]int)
	}
	i.decrements[productID] += quantity
	return i.err
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	repo       *fakeRepository
	orders     *recordingOrderStore
	notifier   *recordingNotifier
	inventory  *recordingInventory
}

func newDispatcherFixture() *dispatcherFixture {
	repo := newFakeRepository()
	orders := &recordingOrderStore{}
	notifier := &recordingNotifier{}
	inventory := &recordingInventory{}
	reconciler := NewReconciler(orders, notifier, inventory)
	return &dispatcherFixture{
		dispatcher: NewDispatcher(testWebhookSecret, NewService(repo), reconciler),
		repo:       repo,
		orders:     orders,
		notifier:   notifier,
		inventory:  inventory,
	}
}

func signedHeader(payload []byte, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func eventPayload(eventID, eventType, sessionJSON string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		eventID, stripe.APIVersion, eventType, sessionJSON,
	))
}

const completedSessionJSON = `{"id":"cs_123","object":"checkout.session","amount_total":3998,"customer_email":"buyer@example.com","metadata":{"product_id":"p1","quantity":"2"}}`

func TestDispatcherRejectsMissingSignature(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)

	err := fx.dispatcher.Handle(context.Background(), payload, "")
	if err != ErrMissingSignature {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
	if len(fx.orders.paid) != 0 {
		t.Error("no handler must run for an unsigned delivery")
	}
	if len(fx.repo.events) != 0 {
		t.Error("unsigned deliveries must not be persisted")
	}
}

func TestDispatcherRejectsTamperedPayload(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)
	header := signedHeader(payload, time.Now())

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = 'X'

	err := fx.dispatcher.Handle(context.Background(), tampered, header)
	if err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(fx.orders.paid) != 0 {
		t.Error("no handler must run for a tampered delivery")
	}
}

func TestDispatcherRejectsWrongSecret(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)
	at := time.Now()
	sig := webhook.ComputeSignature(at, payload, "whsec_other_secret")
	header := fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))

	if err := fx.dispatcher.Handle(context.Background(), payload, header); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestDispatcherHandlesCompletedSession(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)

	err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now()))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if len(fx.orders.paid) != 1 || fx.orders.paid[0] != "cs_123" {
		t.Errorf("MarkPaid calls = %v, want [cs_123]", fx.orders.paid)
	}
	if len(fx.notifier.confirmations) != 1 || fx.notifier.confirmations[0] != "buyer@example.com" {
		t.Errorf("confirmations = %v", fx.notifier.confirmations)
	}
	if fx.inventory.decrements["p1"] != 2 {
		t.Errorf("stock decrements = %v, want p1:2", fx.inventory.decrements)
	}

	stored := fx.repo.events[ProviderStripe+"|evt_1"]
	if stored == nil {
		t.Fatal("event was not persisted")
	}
	if stored.ProcessedAt == nil {
		t.Error("event was not marked processed")
	}
	if stored.ProcessingError != "" {
		t.Errorf("unexpected processing error %q", stored.ProcessingError)
	}
	if !stored.SignatureValid {
		t.Error("verified event must be stored with signature_valid")
	}
}

func TestDispatcherSkipsDuplicateDelivery(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)

	for i := 0; i < 3; i++ {
		if err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
			t.Fatalf("delivery %d returned error: %v", i, err)
		}
	}

	if len(fx.orders.paid) != 1 {
		t.Errorf("MarkPaid called %d times, want 1", len(fx.orders.paid))
	}
	if len(fx.notifier.confirmations) != 1 {
		t.Errorf("confirmation sent %d times, want 1", len(fx.notifier.confirmations))
	}
	if fx.inventory.decrements["p1"] != 2 {
		t.Errorf("stock decremented %d, want 2", fx.inventory.decrements["p1"])
	}
	if len(fx.repo.events) != 1 {
		t.Errorf("stored %d events, want 1", len(fx.repo.events))
	}
}

func TestDispatcherHandlesAsyncPaymentFailed(t *testing.T) {
	fx := newDispatcherFixture()
	payload := eventPayload("evt_2", "checkout.session.async_payment_failed", completedSessionJSON)

	if err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if len(fx.orders.failed) != 1 || fx.orders.failed[0] != "cs_123" {
		t.Errorf("MarkFailed calls = %v, want [cs_123]", fx.orders.failed)
	}
	if len(fx.notifier.failures) != 1 {
		t.Errorf("failure notices = %v", fx.notifier.failures)
	}
	if len(fx.orders.paid) != 0 {
		t.Error("failed payment must not mark the order paid")
	}
}

func TestDispatcherAcknowledgesUnhandledTypes(t *testing.T) {
	fx := newDispatcherFixture()

	for _, eventType := range []string{"payment_intent.succeeded", "customer.created"} {
		payload := eventPayload("evt_"+eventType, eventType, `{"id":"pi_1"}`)
		if err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
			t.Fatalf("Handle(%s) returned error: %v", eventType, err)
		}
	}

	if len(fx.orders.paid)+len(fx.orders.failed) != 0 {
		t.Error("unhandled event types must not touch orders")
	}
	if len(fx.repo.events) != 2 {
		t.Errorf("stored %d events, want 2", len(fx.repo.events))
	}
}

func TestDispatcherAcknowledgesHandlerFailure(t *testing.T) {
	fx := newDispatcherFixture()
	fx.orders.err = fmt.Errorf("order backend down")
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)

	if err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("handler failures must still acknowledge, got %v", err)
	}

	stored := fx.repo.events[ProviderStripe+"|evt_1"]
	if stored == nil {
		t.Fatal("event was not persisted")
	}
	if stored.ProcessingError == "" {
		t.Error("handler failure must be recorded on the stored event")
	}
}

func TestDispatcherProcessesWhenPersistenceFails(t *testing.T) {
	fx := newDispatcherFixture()
	fx.repo.failEvents = true
	payload := eventPayload("evt_1", "checkout.session.completed", completedSessionJSON)

	if err := fx.dispatcher.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(fx.orders.paid) != 1 {
		t.Error("processing must continue when event persistence is unavailable")
	}
}
