package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/app/controllers"
	"github.com/shopfox/shopfox/internal/pkg/constants"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Payment provider webhooks (no CSRF, signature-verified in controller)
	app.Post(constants.StripeWebhookRoute, controllers.HandleStripeWebhook)

	// JSON checkout endpoints used by the storefront client
	app.Post(constants.CheckoutRoute, controllers.HandleCheckout)
	app.Post(constants.CartCheckoutRoute, middleware.RequireAPISessionAuth, controllers.HandleCartCheckout)

	// Post-payment redirect targets; the provider appends the session id
	app.Get(constants.CheckoutSuccessRoute, controllers.HandleCheckoutSuccess)
	app.Get(constants.CheckoutCancelRoute, controllers.HandleCheckoutCancel)
}
