package mail

import (
	"context"
	"fmt"

	"github.com/shopfox/shopfox/internal/pkg/env"
	"github.com/shopfox/shopfox/internal/pkg/payment"
)

// Notifier sends customer payment notifications over SMTP. Implements the
// payment reconciler's NotificationSender.
type Notifier struct {
	currency string
}

func NewNotifier() *Notifier {
	return &Notifier{currency: env.GetEnv("CHECKOUT_CURRENCY", "usd")}
}

func (n *Notifier) SendOrderConfirmation(ctx context.Context, email, sessionID string, amountTotal int64) error {
	_ = ctx
	amount, err := payment.FromMinorUnits(amountTotal, n.currency)
	if err != nil {
		return err
	}

	subject := "Your order is confirmed"
	body := fmt.Sprintf(
		"<p>Thank you for your purchase.</p>"+
			"<p>Order reference: %s<br>Total: %.2f %s</p>"+
			"<p>Your order has been confirmed and will be processed shortly.</p>",
		sessionID, amount, n.currency,
	)
	return SendMail(email, subject, body)
}

func (n *Notifier) SendPaymentFailure(ctx context.Context, email, sessionID string) error {
	_ = ctx
	subject := "There was a problem with your payment"
	body := fmt.Sprintf(
		"<p>Unfortunately your payment could not be completed.</p>"+
			"<p>Order reference: %s</p>"+
			"<p>No charges were made. Please try again or use a different payment method.</p>",
		sessionID,
	)
	return SendMail(email, subject, body)
}
