package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/shopfox/shopfox/app/controllers"
	"github.com/shopfox/shopfox/internal/pkg/constants"
	"github.com/shopfox/shopfox/internal/pkg/env"
	"github.com/shopfox/shopfox/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// JSON API, checkout endpoints and webhook deliveries carry no CSRF token
			return strings.HasPrefix(c.Path(), "/api/") ||
				strings.HasPrefix(c.Path(), "/stripe/") ||
				c.Path() == constants.CheckoutRoute ||
				c.Path() == constants.CartCheckoutRoute
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))

	// Storefront pages
	group.Get(constants.HomeRoute, controllers.HandleHome)
	group.Get(constants.ProductsRoute, controllers.HandleProducts)
	group.Get(constants.ProductsRoute+"/:id", controllers.HandleProductDetail)

	// Checkout
	group.Post(constants.BuyNowRoute, controllers.HandleBuyNow)

	// Cart
	group.Get(constants.CartRoute, middleware.RequireAuth, controllers.HandleCartView)

	// Auth
	group.Get(constants.LoginRoute, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, controllers.HandleAuthLogin)
	group.Get(constants.LogoutRoute, middleware.RequireAuth, controllers.HandleAuthLogout)
}
