package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"

	"github.com/shopfox/shopfox/internal/pkg/payment"
)

// fakeGateway captures the session params instead of calling the provider.
type fakeGateway struct {
	lastParams *stripe.CheckoutSessionParams
	session    *stripe.CheckoutSession
	err        error
}

func (g *fakeGateway) CreateSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.lastParams = params
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, _ string) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _ string, _ map[string]string) (*stripe.Customer, error) {
	return nil, errors.New("not implemented")
}

func newCheckoutTestApp(gateway *fakeGateway) *fiber.App {
	InitializeCheckoutController(gateway, &payment.SessionFactory{
		BaseURL:  "https://shop.example.com",
		Currency: "usd",
	})

	app := fiber.New()
	app.Post("/checkout", HandleCheckout)
	return app
}

func TestHandleCheckout(t *testing.T) {
	gateway := &fakeGateway{
		session: &stripe.CheckoutSession{ID: "cs_123", URL: "https://pay.example.com/cs_123"},
	}
	app := newCheckoutTestApp(gateway)

	body := `{"productId":"p1","productName":"Fox Mug","price":19.99,"quantity":2,"customerEmail":"buyer@example.com"}`
	req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]string
	raw, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "cs_123", out["sessionId"])
	assert.Equal(t, "https://pay.example.com/cs_123", out["url"])

	// The gateway received a session request built from the payload.
	assert.NotNil(t, gateway.lastParams)
	assert.Equal(t, "p1", gateway.lastParams.Metadata[payment.MetadataKeyProductID])
	assert.Equal(t, "2", gateway.lastParams.Metadata[payment.MetadataKeyQuantity])
	assert.Equal(t, int64(1999), *gateway.lastParams.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "buyer@example.com", *gateway.lastParams.CustomerEmail)
}

func TestHandleCheckoutMissingFields(t *testing.T) {
	gateway := &fakeGateway{session: &stripe.CheckoutSession{ID: "cs_123"}}
	app := newCheckoutTestApp(gateway)

	bodies := []string{
		`{}`,
		`{"productId":"p1"}`,
		`{"productId":"p1","productName":"Fox Mug","price":0,"quantity":1}`,
		`{"productId":"p1","productName":"Fox Mug","price":5,"quantity":0}`,
		`{"productId":"p1","productName":"Fox Mug","price":5,"quantity":1,"customerEmail":"not-an-email"}`,
		`not json`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body: %s", body)

		var out map[string]string
		raw, _ := io.ReadAll(resp.Body)
		assert.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, "Missing required fields", out["error"])
	}
	assert.Nil(t, gateway.lastParams, "rejected requests must not reach the gateway")
}

func TestHandleCheckoutGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{err: payment.ErrCreateSession}
	app := newCheckoutTestApp(gateway)

	body := `{"productId":"p1","productName":"Fox Mug","price":19.99,"quantity":1}`
	req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out map[string]string
	raw, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Failed to create checkout session", out["error"])
}
