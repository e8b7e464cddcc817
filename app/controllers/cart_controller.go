package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/shopapi"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// HandleCartView renders the backend cart of the logged-in user.
func HandleCartView(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cart, err := shopClient.GetCart(ctx, userCtx.UserID, userCtx.AccessToken)
	if err != nil {
		if errors.Is(err, shopapi.ErrUnauthorized) {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Your cart is currently unavailable"}).Redirect("/")
	}

	// Reconcile the badge with the backend truth.
	count := 0
	for _, item := range cart.Items {
		count += int(item.Quantity)
	}
	_ = session.SetCartCount(c, count)

	return c.Render("cart", fiber.Map{
		"Title":      "Your Cart",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"CartCount":  count,
		"Flash":      flash.Get(c),
		"Cart":       cart,
	}, "layouts/main")
}

// CartCountRequest adjusts the session cart badge.
type CartCountRequest struct {
	Delta int `json:"delta"`
}

// HandleCartCount returns the session-scoped cart badge counter.
func HandleCartCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"count": session.GetCartCount(c)})
}

// HandleCartCountUpdate applies a delta to the cart badge counter. The badge
// is display state only; the backend cart stays authoritative.
func HandleCartCountUpdate(c *fiber.Ctx) error {
	var req CartCountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	count, err := session.AddCartCount(c, req.Delta)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update cart count"})
	}
	return c.JSON(fiber.Map{"count": count})
}
