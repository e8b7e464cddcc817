package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/cache"
	"github.com/shopfox/shopfox/internal/pkg/env"
)

// ProductsPerPage is the fixed page size for catalog listings.
const ProductsPerPage = 8

// ErrUnauthorized marks a 401 from the shop backend so handlers can
// redirect to the login page instead of rendering an error.
var ErrUnauthorized = errors.New("shop backend rejected credentials")

// Client talks to the external shop backend that owns products, carts and
// user accounts. All calls are plain pass-throughs; this application keeps
// no catalog state of its own.
type Client struct {
	BaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from SHOP_API_URL.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("SHOP_API_URL", "http://localhost:8080"), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// LoginResponse is the backend reply to a credentials login.
type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
}

// ProductList is a single catalog page.
type ProductList struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("login response carried no access token")
	}
	return &out, nil
}

// GetUser fetches the account record for a backend user id.
func (c *Client) GetUser(ctx context.Context, id, token string) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/"+url.PathEscape(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProducts fetches one catalog page, optionally filtered by a search term.
func (c *Client) GetProducts(ctx context.Context, query string, page int, token string) (*ProductList, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	if query != "" {
		q.Set("search", query)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(ProductsPerPage))

	var out ProductList
	if err := c.doJSON(ctx, http.MethodGet, "/products?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProductByID fetches a single product.
func (c *Client) GetProductByID(ctx context.Context, id, token string) (*models.Product, error) {
	var out models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCart fetches the backend cart for a user.
func (c *Client) GetCart(ctx context.Context, userID, token string) (*models.Cart, error) {
	q := url.Values{}
	q.Set("userId", userID)

	var out struct {
		Cart models.Cart `json:"cart"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/cart?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Cart, nil
}

// ProductCacheKey is the cache key for a single product's details.
func ProductCacheKey(id string) string {
	return "shopapi:product:" + id
}

// DecrementStock reduces backend inventory after a successful payment.
// Satisfies the payment reconciler's InventoryAdjuster.
func (c *Client) DecrementStock(ctx context.Context, productID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	path := "/products/" + url.PathEscape(productID) + "/stock/decrement"
	if err := c.doJSON(ctx, http.MethodPost, path, "", body, nil); err != nil {
		return err
	}
	// The cached detail page now shows a stale stock figure.
	_ = cache.Delete(ProductCacheKey(productID))
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("shop api: %s %s returned status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("shop api: decode %s %s response: %w", method, path, err)
	}
	return nil
}
