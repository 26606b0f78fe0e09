package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// Интеграционный тест требует живого Redis и включается через
// STOREFRONT_TEST_REDIS_ADDR.
func testStorage(t *testing.T) domain.CartStorage {
	t.Helper()

	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR is not set")
	}

	client, err := redis.NewClient(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return redis.NewCartStorage(client)
}

func TestCartStorageRoundTrip(t *testing.T) {
	storage := testStorage(t)
	ctx := context.Background()
	ownerKey := "test-" + uuid.NewString()

	loaded, err := storage.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Empty(t, loaded)

	items := []domain.CartLineItem{
		{ProductID: "p-1", Name: "Sneakers", PriceMinor: 500, Qty: 2, Size: "42", Color: "white"},
		{ProductID: "p-2", Name: "T-Shirt", PriceMinor: 300, Qty: 1},
	}
	require.NoError(t, storage.Save(ctx, ownerKey, items))

	loaded, err = storage.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Equal(t, items, loaded)

	require.NoError(t, storage.Delete(ctx, ownerKey))

	loaded, err = storage.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestCartStorageRequiresOwner(t *testing.T) {
	storage := testStorage(t)
	ctx := context.Background()

	_, err := storage.Load(ctx, "")
	require.ErrorIs(t, err, domain.ErrCartOwnerRequired)
	require.ErrorIs(t, storage.Save(ctx, "", nil), domain.ErrCartOwnerRequired)
	require.ErrorIs(t, storage.Delete(ctx, ""), domain.ErrCartOwnerRequired)
}
