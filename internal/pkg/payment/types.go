package payment

// Metadata keys carried on a checkout session. The metadata mapping is the
// only channel that correlates a provider-side session back to a domain
// order, so these keys must survive the round trip to the webhook unchanged.
const (
	MetadataKeyProductID = "product_id"
	MetadataKeyQuantity  = "quantity"
	MetadataKeyOrderType = "order_type"
	MetadataKeyItemCount = "item_count"
)

// OrderTypeCart marks sessions created from a multi-item cart.
const OrderTypeCart = "cart"

// ProviderStripe is the provider tag stored with webhook events and orders.
const ProviderStripe = "stripe"

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
