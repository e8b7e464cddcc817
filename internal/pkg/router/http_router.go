package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfox/shopfox/app/controllers"
	"github.com/shopfox/shopfox/internal/pkg/database"
	"github.com/shopfox/shopfox/internal/pkg/env"
	"github.com/shopfox/shopfox/internal/pkg/mail"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
	"github.com/shopfox/shopfox/internal/pkg/payment"
	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/shopapi"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Wire the payment core and storefront controllers
	db := database.GetDB()
	backend := shopapi.NewClientFromEnv()
	service := payment.NewServiceFromDB(db)
	reconciler := payment.NewReconciler(
		payment.NewOrderStoreFromDB(db),
		mail.NewNotifier(),
		backend,
	)
	dispatcher := payment.NewDispatcher(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""), service, reconciler)

	controllers.InitializeShopControllers(backend)
	controllers.InitializeCheckoutController(payment.NewStripeGatewayFromEnv(), payment.NewSessionFactoryFromEnv())
	controllers.InitializeWebhookController(dispatcher)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
