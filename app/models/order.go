package models

import "time"

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"

	OrderTypeProduct = "product"
	OrderTypeCart    = "cart"
)

// Order is the local order-intent record keyed by the provider checkout
// session id. It exists for auditability and idempotent webhook processing;
// the provider session metadata remains the authoritative correlation
// channel.
type Order struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Reference         string     `gorm:"type:varchar(36);uniqueIndex" json:"reference"`
	ProviderSessionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_session_id"`
	OrderType         string     `gorm:"type:varchar(20);default:'product';index" json:"order_type"`
	ProductID         string     `gorm:"type:varchar(100);index" json:"product_id"`
	Quantity          int        `gorm:"default:0" json:"quantity"`
	ItemCount         int        `gorm:"default:0" json:"item_count"`
	CustomerEmail     string     `gorm:"type:varchar(200)" json:"customer_email"`
	AmountTotal       int64      `gorm:"default:0" json:"amount_total"`
	Currency          string     `gorm:"type:varchar(3);default:'usd'" json:"currency"`
	Status            string     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaidAt            *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	FailedAt          *time.Time `gorm:"type:timestamp;default:null" json:"failed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
