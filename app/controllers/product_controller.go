package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/cache"
	"github.com/shopfox/shopfox/internal/pkg/session"
	"github.com/shopfox/shopfox/internal/pkg/shopapi"
	"github.com/shopfox/shopfox/internal/pkg/usercontext"
)

// productCacheTTL bounds how stale a cached product page may get.
const productCacheTTL = 5 * time.Minute

var shopClient *shopapi.Client

// InitializeShopControllers wires the external shop backend client used by
// the storefront pages.
func InitializeShopControllers(client *shopapi.Client) {
	shopClient = client
}

// HandleHome renders the storefront landing page with the first catalog page.
func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	data := fiber.Map{
		"Title":      "Shop",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"CartCount":  session.GetCartCount(c),
		"Flash":      flash.Get(c),
	}

	list, err := shopClient.GetProducts(ctx, "", 1, userCtx.AccessToken)
	if err == nil {
		data["Products"] = list.Products
	}
	// A backend outage still renders the page, just without products.

	return c.Render("index", data, "layouts/main")
}

// HandleProducts renders the paginated, searchable catalog page.
func HandleProducts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	query := c.Query("search")
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	list, err := shopClient.GetProducts(ctx, query, page, userCtx.AccessToken)
	if err != nil {
		if errors.Is(err, shopapi.ErrUnauthorized) {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Products are currently unavailable"}).Redirect("/")
	}

	return c.Render("products", fiber.Map{
		"Title":      "Products",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"CartCount":  session.GetCartCount(c),
		"Flash":      flash.Get(c),
		"Products":   list.Products,
		"Search":     query,
		"Page":       page,
		"HasMore":    page*shopapi.ProductsPerPage < list.Total,
		"NextPage":   page + 1,
		"PrevPage":   page - 1,
	}, "layouts/main")
}

// HandleProductDetail renders a single product page with a buy-now form.
func HandleProductDetail(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id := c.Params("id")

	product, err := loadProduct(userCtx.AccessToken, id)
	if err != nil {
		if errors.Is(err, shopapi.ErrUnauthorized) {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Product not found"}).Redirect("/products")
	}

	return c.Render("product", fiber.Map{
		"Title":      product.Name,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"CartCount":  session.GetCartCount(c),
		"Flash":      flash.Get(c),
		"Product":    product,
		"CSRFToken":  c.Locals("csrf"),
	}, "layouts/main")
}

// loadProduct serves product details from the Redis cache when possible.
// Catalog data is shared across users, so the cache key carries no identity.
func loadProduct(token, id string) (*models.Product, error) {
	cacheKey := shopapi.ProductCacheKey(id)
	if raw, err := cache.Get(cacheKey); err == nil {
		var product models.Product
		if err := json.Unmarshal([]byte(raw), &product); err == nil {
			return &product, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	product, err := shopClient.GetProductByID(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(product); err == nil {
		_ = cache.Set(cacheKey, string(raw), productCacheTTL)
	}
	return product, nil
}
