package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfox/shopfox/app/models"
)

// repositoryOrderStore keeps order-intent records keyed by the provider
// session id. State transitions no-op when the target state was already
// applied, which makes redelivered webhook events harmless.
type repositoryOrderStore struct {
	repo Repository
}

// NewOrderStore creates an OrderStore on top of a payment repository.
func NewOrderStore(repo Repository) OrderStore {
	return &repositoryOrderStore{repo: repo}
}

// NewOrderStoreFromDB creates a GORM-backed OrderStore.
func NewOrderStoreFromDB(db *gorm.DB) OrderStore {
	return NewOrderStore(NewRepository(db))
}

func (s *repositoryOrderStore) MarkPaid(ctx context.Context, sessionID string, metadata map[string]string, customerEmail string, amountTotal int64) error {
	_ = ctx
	order, err := s.repo.GetOrderBySessionID(sessionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	if order == nil {
		order = orderFromMetadata(sessionID, metadata, customerEmail)
		order.AmountTotal = amountTotal
		order.Status = models.OrderStatusPaid
		order.PaidAt = &now
		return s.repo.CreateOrder(order)
	}

	if order.Status == models.OrderStatusPaid {
		// Duplicate delivery, the transition was already applied.
		return nil
	}
	order.Status = models.OrderStatusPaid
	order.AmountTotal = amountTotal
	order.PaidAt = &now
	if customerEmail != "" {
		order.CustomerEmail = customerEmail
	}
	return s.repo.SaveOrder(order)
}

func (s *repositoryOrderStore) MarkFailed(ctx context.Context, sessionID string, metadata map[string]string, customerEmail string) error {
	_ = ctx
	order, err := s.repo.GetOrderBySessionID(sessionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	if order == nil {
		order = orderFromMetadata(sessionID, metadata, customerEmail)
		order.Status = models.OrderStatusFailed
		order.FailedAt = &now
		return s.repo.CreateOrder(order)
	}

	if order.Status == models.OrderStatusFailed {
		return nil
	}
	order.Status = models.OrderStatusFailed
	order.FailedAt = &now
	return s.repo.SaveOrder(order)
}

func orderFromMetadata(sessionID string, metadata map[string]string, customerEmail string) *models.Order {
	order := &models.Order{
		Reference:         uuid.NewString(),
		ProviderSessionID: sessionID,
		OrderType:         models.OrderTypeProduct,
		ProductID:         metadata[MetadataKeyProductID],
		CustomerEmail:     customerEmail,
	}
	if metadata[MetadataKeyOrderType] == OrderTypeCart {
		order.OrderType = models.OrderTypeCart
	}
	if qty, err := strconv.Atoi(metadata[MetadataKeyQuantity]); err == nil {
		order.Quantity = qty
	}
	if count, err := strconv.Atoi(metadata[MetadataKeyItemCount]); err == nil {
		order.ItemCount = count
	}
	return order
}
