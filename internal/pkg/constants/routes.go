package constants

// Static route constants
const (
	HomeRoute            = "/"
	ProductsRoute        = "/products"
	CartRoute            = "/cart"
	LoginRoute           = "/login"
	LogoutRoute          = "/logout"
	BuyNowRoute          = "/buy-now"
	CheckoutRoute        = "/checkout"
	CartCheckoutRoute    = "/cart/checkout"
	CheckoutSuccessRoute = "/checkout/success"
	CheckoutCancelRoute  = "/checkout/cancel"
	StripeWebhookRoute   = "/stripe/webhook"
)
