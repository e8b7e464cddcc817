package payment

import (
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"

	"github.com/shopfox/shopfox/app/models"
	"github.com/shopfox/shopfox/internal/pkg/env"
)

// shippingAllowedCountries is the fixed allow-list for shipping address
// collection on hosted checkout.
var shippingAllowedCountries = []string{"US", "CA", "GB", "AU"}

// SessionFactory builds provider checkout session requests from domain data.
// Both builders are pure transformations; nothing here talks to the network.
type SessionFactory struct {
	BaseURL  string
	Currency string
}

// NewSessionFactoryFromEnv builds a factory from PUBLIC_DOMAIN and
// CHECKOUT_CURRENCY.
func NewSessionFactoryFromEnv() *SessionFactory {
	return &SessionFactory{
		BaseURL:  strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/"),
		Currency: strings.ToLower(env.GetEnv("CHECKOUT_CURRENCY", "usd")),
	}
}

// ProductSession builds a single-product checkout session request. Quantity
// must already be validated by the caller (>= 1); it is not re-checked here.
// The session id placeholder in the success URL is substituted by the
// provider at redirect time.
func (f *SessionFactory) ProductSession(p models.Product, quantity int64, customerEmail string, extra map[string]string) (*stripe.CheckoutSessionParams, error) {
	item, err := f.lineItem(p, quantity)
	if err != nil {
		return nil, err
	}

	params := f.baseParams(customerEmail)
	params.LineItems = []*stripe.CheckoutSessionLineItemParams{item}
	params.AddMetadata(MetadataKeyProductID, p.ID)
	params.AddMetadata(MetadataKeyQuantity, strconv.FormatInt(quantity, 10))
	for k, v := range extra {
		params.AddMetadata(k, v)
	}
	return params, nil
}

// CartSession builds a multi-line checkout session request. Line items keep
// the input order; it drives display order on the hosted page, not
// settlement. Unlike the single-product path, cart checkouts enable the
// provider's automatic tax computation.
func (f *SessionFactory) CartSession(lines []models.CartItem, customerEmail string, extra map[string]string) (*stripe.CheckoutSessionParams, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	for _, line := range lines {
		item, err := f.lineItem(line.Product, line.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	params := f.baseParams(customerEmail)
	params.LineItems = items
	params.AutomaticTax = &stripe.CheckoutSessionAutomaticTaxParams{
		Enabled: stripe.Bool(true),
	}
	params.AddMetadata(MetadataKeyOrderType, OrderTypeCart)
	params.AddMetadata(MetadataKeyItemCount, strconv.Itoa(len(lines)))
	for k, v := range extra {
		params.AddMetadata(k, v)
	}
	return params, nil
}

func (f *SessionFactory) baseParams(customerEmail string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(f.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(f.BaseURL + "/checkout/cancel"),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(shippingAllowedCountries),
		},
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
	}
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}
	return params
}

func (f *SessionFactory) lineItem(p models.Product, quantity int64) (*stripe.CheckoutSessionLineItemParams, error) {
	unitAmount, err := ToMinorUnits(p.Price, f.Currency)
	if err != nil {
		return nil, err
	}

	description := p.Description
	if description == "" {
		description = "Product: " + p.Name
	}
	var images []*string
	if p.Image != "" {
		images = stripe.StringSlice([]string{p.Image})
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(f.Currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(p.Name),
				Description: stripe.String(description),
				Images:      images,
			},
			UnitAmount: stripe.Int64(unitAmount),
		},
		Quantity: stripe.Int64(quantity),
	}, nil
}
