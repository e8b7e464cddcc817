package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/shopfox/shopfox/app/controllers"
	"github.com/shopfox/shopfox/internal/pkg/env"
)

// APIServer implements the JSON API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ping": "pong",
	})
}

// GetConfig exposes the client-side provider configuration. Only the
// publishable key ever crosses this boundary; secret credentials stay
// server-held.
func (s *APIServer) GetConfig(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"publishableKey": env.GetEnv("STRIPE_PUBLISHABLE_KEY", ""),
	})
}

// PostCheckout creates a single-product checkout session.
func (s *APIServer) PostCheckout(c *fiber.Ctx) error {
	return controllers.HandleCheckout(c)
}

// PostCartCheckout creates a checkout session from the backend cart.
func (s *APIServer) PostCartCheckout(c *fiber.Ctx) error {
	return controllers.HandleCartCheckout(c)
}

// GetCartCount returns the session cart badge counter.
func (s *APIServer) GetCartCount(c *fiber.Ctx) error {
	return controllers.HandleCartCount(c)
}

// PostCartCount adjusts the session cart badge counter.
func (s *APIServer) PostCartCount(c *fiber.Ctx) error {
	return controllers.HandleCartCountUpdate(c)
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/config", s.GetConfig)
	router.Post("/checkout", s.PostCheckout)
	router.Post("/cart/checkout", s.PostCartCheckout)
	router.Get("/cart/count", s.GetCartCount)
	router.Post("/cart/count", s.PostCartCount)
}
