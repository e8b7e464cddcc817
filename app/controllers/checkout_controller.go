package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/payment"
	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/shopapi"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

var (
	checkoutGateway payment.Gateway
	checkoutFactory *payment.SessionFactory
)

// InitializeCheckoutController wires the payment gateway and session factory.
func InitializeCheckoutController(gateway payment.Gateway, factory *payment.SessionFactory) {
	checkoutGateway = gateway
	checkoutFactory = factory
}

// CheckoutRequest is the JSON body for a single-product checkout.
type CheckoutRequest struct {
	ProductID     string  `json:"productId" validate:"required"`
	ProductName   string  `json:"productName" validate:"required"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	Quantity      int64   `json:"quantity" validate:"required,min=1"`
	CustomerEmail string  `json:"customerEmail" validate:"omitempty,email"`
}

// HandleCheckout creates a hosted checkout session for a single product and
// returns the session id plus the redirect URL.
func HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}

	product := models.Product{
		ID:          req.ProductID,
		Name:        req.ProductName,
		Price:       req.Price,
		Description: fmt.Sprintf("Purchase of %s", req.ProductName),
	}

	params, err := checkoutFactory.ProductSession(product, req.Quantity, req.CustomerEmail, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sess, err := checkoutGateway.CreateSession(ctx, params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

// HandleCartCheckout creates a hosted checkout session from the logged-in
// user's backend cart.
func HandleCartCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cart, err := shopClient.GetCart(ctx, userCtx.UserID, userCtx.AccessToken)
	if err != nil {
		if errors.Is(err, shopapi.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}
	if len(cart.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart is empty"})
	}

	params, err := checkoutFactory.CartSession(cart.Items, userCtx.Email, map[string]string{
		"user_id": userCtx.UserID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	sess, err := checkoutGateway.CreateSession(ctx, params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

// HandleCheckoutSuccess renders the post-payment page. A missing or
// unretrievable session degrades to a page without order details instead of
// failing.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	data := fiber.Map{
		"Title":      "Payment Successful",
		"IsLoggedIn": usercontext.IsLoggedIn(c),
	}

	sessionID := c.Query("session_id")
	if sessionID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if sess, err := checkoutGateway.RetrieveSession(ctx, sessionID); err == nil {
			data["SessionID"] = sess.ID
			data["CustomerEmail"] = sess.CustomerEmail
			if amount, err := payment.FromMinorUnits(sess.AmountTotal, checkoutFactory.Currency); err == nil {
				data["AmountTotal"] = fmt.Sprintf("%.2f", amount)
			}
			if sess.Metadata[payment.MetadataKeyOrderType] == payment.OrderTypeCart {
				_ = session.SetCartCount(c, 0)
			}
		}
		// Retrieval errors are already logged by the gateway; the page still
		// renders with a generic confirmation.
	}

	return c.Render("checkout_success", data, "layouts/main")
}

// HandleCheckoutCancel renders the cancellation page.
func HandleCheckoutCancel(c *fiber.Ctx) error {
	return c.Render("checkout_cancel", fiber.Map{
		"Title":      "Payment Cancelled",
		"IsLoggedIn": usercontext.IsLoggedIn(c),
	}, "layouts/main")
}

// HandleBuyNow is the storefront form fallback for non-JS buyers: it loads
// the product from the backend, builds the same single-product session and
// redirects straight to hosted checkout.
func HandleBuyNow(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	productID := c.FormValue("product_id")
	if productID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid checkout request"}).Redirect("/products")
	}

	var quantity int64
	if _, err := fmt.Sscanf(c.FormValue("quantity", "1"), "%d", &quantity); err != nil || quantity < 1 {
		quantity = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	product, err := shopClient.GetProductByID(ctx, productID, userCtx.AccessToken)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Product not found"}).Redirect("/products")
	}

	params, err := checkoutFactory.ProductSession(*product, quantity, userCtx.Email, nil)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout could not be started"}).Redirect("/products")
	}

	sess, err := checkoutGateway.CreateSession(ctx, params)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout could not be started"}).Redirect("/products")
	}

	return c.Redirect(sess.URL, fiber.StatusSeeOther)
}
