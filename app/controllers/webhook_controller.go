package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/internal/pkg/payment"
)

var webhookDispatcher *payment.Dispatcher

// InitializeWebhookController wires the payment webhook dispatcher.
func InitializeWebhookController(dispatcher *payment.Dispatcher) {
	webhookDispatcher = dispatcher
}

// HandleStripeWebhook receives provider events. The raw body is passed to
// the dispatcher untouched; signature verification needs the exact bytes as
// sent. Only authenticity failures reject the delivery.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := webhookDispatcher.Handle(ctx, rawBody, signature); err != nil {
		if errors.Is(err, payment.ErrMissingSignature) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_signature_header"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
