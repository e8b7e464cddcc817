package payment

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/stripe/stripe-go/v82"
)

// OrderStore applies payment outcomes to the local order record. Both
// operations must be idempotent: the provider delivers events at least once,
// so marking an already-paid order paid again is a no-op.
type OrderStore interface {
	MarkPaid(ctx context.Context, sessionID string, metadata map[string]string, customerEmail string, amountTotal int64) error
	MarkFailed(ctx context.Context, sessionID string, metadata map[string]string, customerEmail string) error
}

// NotificationSender delivers customer-facing payment notifications.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, email, sessionID string, amountTotal int64) error
	SendPaymentFailure(ctx context.Context, email, sessionID string) error
}

// InventoryAdjuster applies stock changes in the shop backend.
type InventoryAdjuster interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

// Reconciler applies the side effects of payment events. Every collaborator
// failure is logged and collected; the caller records it on the stored
// webhook event but still acknowledges the delivery.
type Reconciler struct {
	orders    OrderStore
	notifier  NotificationSender
	inventory InventoryAdjuster
}

func NewReconciler(orders OrderStore, notifier NotificationSender, inventory InventoryAdjuster) *Reconciler {
	return &Reconciler{orders: orders, notifier: notifier, inventory: inventory}
}

// HandlePaymentSucceeded reconciles a completed or async-succeeded checkout
// session: order status, confirmation mail, inventory decrement. The domain
// identifiers are recovered from the session metadata.
func (r *Reconciler) HandlePaymentSucceeded(ctx context.Context, sess *stripe.CheckoutSession) error {
	meta := sess.Metadata
	productID := meta[MetadataKeyProductID]
	quantity := meta[MetadataKeyQuantity]
	orderType := meta[MetadataKeyOrderType]

	var procErr error

	switch {
	case orderType == OrderTypeCart:
		log.Printf("reconcile: processing cart order for session %s", sess.ID)
		if err := r.orders.MarkPaid(ctx, sess.ID, meta, sess.CustomerEmail, sess.AmountTotal); err != nil {
			log.Printf("reconcile: mark cart order paid for session %s: %v", sess.ID, err)
			procErr = errors.Join(procErr, err)
		}
	case productID != "":
		log.Printf("reconcile: processing product order %s x %s for session %s", productID, quantity, sess.ID)
		if err := r.orders.MarkPaid(ctx, sess.ID, meta, sess.CustomerEmail, sess.AmountTotal); err != nil {
			log.Printf("reconcile: mark product order paid for session %s: %v", sess.ID, err)
			procErr = errors.Join(procErr, err)
		}
	default:
		log.Printf("reconcile: session %s carries no order metadata", sess.ID)
	}

	if sess.CustomerEmail != "" {
		if err := r.notifier.SendOrderConfirmation(ctx, sess.CustomerEmail, sess.ID, sess.AmountTotal); err != nil {
			log.Printf("reconcile: send confirmation to %s for session %s: %v", sess.CustomerEmail, sess.ID, err)
			procErr = errors.Join(procErr, err)
		}
	}

	if productID != "" && quantity != "" {
		qty, err := strconv.Atoi(quantity)
		if err != nil {
			log.Printf("reconcile: invalid quantity %q in session %s metadata: %v", quantity, sess.ID, err)
			procErr = errors.Join(procErr, err)
		} else if err := r.inventory.DecrementStock(ctx, productID, qty); err != nil {
			log.Printf("reconcile: decrement stock for product %s (session %s): %v", productID, sess.ID, err)
			procErr = errors.Join(procErr, err)
		}
	}

	return procErr
}

// HandlePaymentFailed marks the correlated order failed and notifies the
// customer when an email is present.
func (r *Reconciler) HandlePaymentFailed(ctx context.Context, sess *stripe.CheckoutSession) error {
	var procErr error

	if err := r.orders.MarkFailed(ctx, sess.ID, sess.Metadata, sess.CustomerEmail); err != nil {
		log.Printf("reconcile: mark order failed for session %s: %v", sess.ID, err)
		procErr = errors.Join(procErr, err)
	}

	if sess.CustomerEmail != "" {
		if err := r.notifier.SendPaymentFailure(ctx, sess.CustomerEmail, sess.ID); err != nil {
			log.Printf("reconcile: send failure notice to %s for session %s: %v", sess.CustomerEmail, sess.ID, err)
			procErr = errors.Join(procErr, err)
		}
	}

	return procErr
}
