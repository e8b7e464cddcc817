package payment

import (
	"context"
	"testing"

	"github.com/shopfox/shopfox/app/models"
)

func TestMarkPaidCreatesOrderFromMetadata(t *testing.T) {
	repo := newFakeRepository()
	store := NewOrderStore(repo)

	meta := map[string]string{
		MetadataKeyProductID: "p1",
		MetadataKeyQuantity:  "2",
	}
	if err := store.MarkPaid(context.Background(), "cs_123", meta, "buyer@example.com", 3998); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}

	order := repo.orders["cs_123"]
	if order == nil {
		t.Fatal("order was not created")
	}
	if order.Status != models.OrderStatusPaid {
		t.Errorf("status = %q, want paid", order.Status)
	}
	if order.OrderType != models.OrderTypeProduct {
		t.Errorf("order type = %q, want product", order.OrderType)
	}
	if order.ProductID != "p1" || order.Quantity != 2 {
		t.Errorf("product %q x %d, want p1 x 2", order.ProductID, order.Quantity)
	}
	if order.AmountTotal != 3998 {
		t.Errorf("amount total = %d, want 3998", order.AmountTotal)
	}
	if order.CustomerEmail != "buyer@example.com" {
		t.Errorf("customer email = %q", order.CustomerEmail)
	}
	if order.Reference == "" {
		t.Error("order reference must be assigned")
	}
	if order.PaidAt == nil {
		t.Error("paid_at must be set")
	}
}

func TestMarkPaidCartMetadata(t *testing.T) {
	repo := newFakeRepository()
	store := NewOrderStore(repo)

	meta := map[string]string{
		MetadataKeyOrderType: OrderTypeCart,
		MetadataKeyItemCount: "3",
	}
	if err := store.MarkPaid(context.Background(), "cs_cart", meta, "", 9900); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}

	order := repo.orders["cs_cart"]
	if order.OrderType != models.OrderTypeCart {
		t.Errorf("order type = %q, want cart", order.OrderType)
	}
	if order.ItemCount != 3 {
		t.Errorf("item count = %d, want 3", order.ItemCount)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	store := NewOrderStore(repo)
	meta := map[string]string{MetadataKeyProductID: "p1", MetadataKeyQuantity: "1"}

	if err := store.MarkPaid(context.Background(), "cs_123", meta, "buyer@example.com", 1999); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}
	firstPaidAt := repo.orders["cs_123"].PaidAt

	if err := store.MarkPaid(context.Background(), "cs_123", meta, "buyer@example.com", 1999); err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if repo.orders["cs_123"].PaidAt != firstPaidAt {
		t.Error("duplicate MarkPaid must not touch the order")
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(repo.orders))
	}
}

func TestMarkPaidTransitionsPendingOrder(t *testing.T) {
	repo := newFakeRepository()
	repo.orders["cs_123"] = &models.Order{
		Reference:         "ref-1",
		ProviderSessionID: "cs_123",
		Status:            models.OrderStatusPending,
	}
	store := NewOrderStore(repo)

	if err := store.MarkPaid(context.Background(), "cs_123", nil, "buyer@example.com", 500); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}

	order := repo.orders["cs_123"]
	if order.Status != models.OrderStatusPaid {
		t.Errorf("status = %q, want paid", order.Status)
	}
	if order.Reference != "ref-1" {
		t.Error("existing reference must be kept")
	}
	if order.CustomerEmail != "buyer@example.com" {
		t.Error("customer email must be filled in on transition")
	}
}

func TestMarkFailed(t *testing.T) {
	repo := newFakeRepository()
	store := NewOrderStore(repo)

	if err := store.MarkFailed(context.Background(), "cs_123", map[string]string{MetadataKeyProductID: "p1"}, "buyer@example.com"); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}

	order := repo.orders["cs_123"]
	if order == nil {
		t.Fatal("order was not created")
	}
	if order.Status != models.OrderStatusFailed {
		t.Errorf("status = %q, want failed", order.Status)
	}
	if order.FailedAt == nil {
		t.Error("failed_at must be set")
	}

	failedAt := order.FailedAt
	if err := store.MarkFailed(context.Background(), "cs_123", nil, ""); err != nil {
		t.Fatalf("second MarkFailed: %v", err)
	}
	if repo.orders["cs_123"].FailedAt != failedAt {
		t.Error("duplicate MarkFailed must not touch the order")
	}
}
