package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

var (
	sneakers = domain.Product{ID: "p-1", Name: "Sneakers", PriceMinor: 500, Stock: 10}
	tshirt   = domain.Product{ID: "p-2", Name: "T-Shirt", PriceMinor: 300, Stock: 5}
)

func newStore(t *testing.T, ownerKey string) (*cart.Store, domain.CartStorage) {
	t.Helper()
	storage := memory.NewCartStorage()
	store, err := cart.NewStore(context.Background(), storage, ownerKey, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, storage
}

func TestNewStoreRequiresOwner(t *testing.T) {
	_, err := cart.NewStore(context.Background(), memory.NewCartStorage(), "", nil)
	if !errors.Is(err, domain.ErrCartOwnerRequired) {
		t.Fatalf("expected ErrCartOwnerRequired, got %v", err)
	}
}

func TestAddItemCompositeKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 1, "42", "white")
	store.AddItem(ctx, sneakers, 2, "42", "white")
	store.AddItem(ctx, sneakers, 1, "43", "white")
	store.AddItem(ctx, sneakers, 1, "42", "black")

	items := store.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 distinct line items, got %d", len(items))
	}
	if items[0].Qty != 3 {
		t.Fatalf("expected merged qty 3 for same variant, got %d", items[0].Qty)
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "u1")

	item := store.AddItem(ctx, tshirt, 0, "", "")
	if item.Qty != 1 {
		t.Fatalf("expected qty to default to 1, got %d", item.Qty)
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 2, "42", "white")
	store.UpdateQuantity(ctx, sneakers.ID, 0, "42", "white")

	if store.IsInCart(sneakers.ID, "42", "white") {
		t.Fatal("quantity <= 0 must remove the line item")
	}

	store.AddItem(ctx, sneakers, 1, "42", "white")
	store.UpdateQuantity(ctx, sneakers.ID, -5, "42", "white")
	if len(store.Items()) != 0 {
		t.Fatal("negative quantity must remove the line item")
	}
}

func TestRemoveItemIsNoopWhenMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 1, "42", "white")
	store.RemoveItem(ctx, "missing", "", "")

	if len(store.Items()) != 1 {
		t.Fatal("removing a missing item must not touch the cart")
	}
}

func TestSubtotal(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 2, "", "")
	store.AddItem(ctx, tshirt, 1, "", "")

	if got := store.SubtotalMinor(); got != 1300 {
		t.Fatalf("expected subtotal 1300, got %d", got)
	}
}

func TestSwitchOwnerReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store, storage := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 2, "", "")
	if err := store.SwitchOwner(ctx, "u2"); err != nil {
		t.Fatalf("switch owner: %v", err)
	}

	// У u2 нет сохранённой корзины — активная корзина обязана быть пустой.
	if len(store.Items()) != 0 {
		t.Fatal("owner switch must never merge or leak another owner's items")
	}

	// Корзина u1 сохранена и восстанавливается при обратном переключении.
	if err := store.SwitchOwner(ctx, "u1"); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Qty != 2 {
		t.Fatalf("expected u1 cart to survive the round trip, got %v", items)
	}

	persisted, err := storage.Load(ctx, "u1")
	if err != nil || len(persisted) != 1 {
		t.Fatalf("expected persisted cart for u1, got %v (%v)", persisted, err)
	}
}

func TestClearAfterCheckout(t *testing.T) {
	ctx := context.Background()
	store, storage := newStore(t, "u1")

	store.AddItem(ctx, sneakers, 1, "", "")
	store.Clear(ctx)

	if len(store.Items()) != 0 {
		t.Fatal("clear must empty the active cart")
	}
	persisted, _ := storage.Load(ctx, "u1")
	if len(persisted) != 0 {
		t.Fatal("clear must be persisted")
	}
}

// failingStorage всегда возвращает ошибку: корзина обязана деградировать
// до пустого состояния, а не блокировать покупки.
type failingStorage struct{}

func (failingStorage) Load(context.Context, string) ([]domain.CartLineItem, error) {
	return nil, errors.New("storage down")
}
func (failingStorage) Save(context.Context, string, []domain.CartLineItem) error {
	return errors.New("storage down")
}
func (failingStorage) Delete(context.Context, string) error {
	return errors.New("storage down")
}

func TestStorageFailuresDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := cart.NewStore(ctx, failingStorage{}, "u1", nil)
	if err != nil {
		t.Fatalf("storage failure must not fail construction: %v", err)
	}

	// Мутации продолжают работать в памяти несмотря на ошибки записи.
	store.AddItem(ctx, sneakers, 1, "", "")
	if len(store.Items()) != 1 {
		t.Fatal("in-memory cart must survive storage write failures")
	}

	if err := store.SwitchOwner(ctx, "u2"); err != nil {
		t.Fatalf("switch owner: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatal("load failure on switch must degrade to an empty cart")
	}
}
