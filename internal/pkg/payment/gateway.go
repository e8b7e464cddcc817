package payment

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"

	"github.com/shopfox/shopfox/internal/pkg/env"
)

// Generic upstream errors surfaced to callers. Provider error internals are
// logged for operators, never returned.
var (
	ErrCreateSession   = errors.New("failed to create checkout session")
	ErrRetrieveSession = errors.New("failed to retrieve checkout session")
	ErrCreateCustomer  = errors.New("failed to create customer")
)

// Gateway is the narrow pass-through surface to the payment provider. Tests
// substitute a fake that records calls instead of performing network I/O.
type Gateway interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error)
}

// StripeGateway calls the Stripe API with the server-held secret key.
type StripeGateway struct{}

// NewStripeGatewayFromEnv configures the Stripe SDK from STRIPE_SECRET_KEY.
func NewStripeGatewayFromEnv() *StripeGateway {
	stripe.Key = strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	return &StripeGateway{}
}

func (g *StripeGateway) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	sess, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("stripe: create checkout session failed: %v", err)
		return nil, ErrCreateSession
	}
	return sess, nil
}

// RetrieveSession fetches a session with line items and customer expanded.
func (g *StripeGateway) RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("customer")

	sess, err := checkoutsession.Get(id, params)
	if err != nil {
		log.Printf("stripe: retrieve checkout session %s failed: %v", id, err)
		return nil, ErrRetrieveSession
	}
	return sess, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cust, err := customer.New(params)
	if err != nil {
		log.Printf("stripe: create customer failed: %v", err)
		return nil, ErrCreateCustomer
	}
	return cust, nil
}
