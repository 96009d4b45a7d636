package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newService() *Service {
	return &Service{Store: NewMemoryStore(time.Hour), TTL: time.Hour}
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, c.CreatedAt.Add(time.Hour), c.ExpiresAt)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	_, err = svc.Get(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceAddItemMergesSameProduct(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := &Cart{ID: "c"}

	first, err := svc.AddItem(ctx, c, "p1", "Mug", 2, 1000)
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, c, "p1", "", 3, 1000)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, c.Items, 1)
	require.Equal(t, 5, c.Items[0].Qty)
	require.Equal(t, "Mug", c.Items[0].Title)

	_, err = svc.AddItem(ctx, c, "p2", "Plate", 0, 1000)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(ctx, c, " ", "Plate", 1, 1000)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(ctx, c, "p2", "Plate", 1, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceUpdateQty(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := &Cart{ID: "c"}
	item, err := svc.AddItem(ctx, c, "p1", "Mug", 2, 1000)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQty(ctx, c, item.ID, 9))
	require.Equal(t, int64(9), c.Quantity())

	require.NoError(t, svc.UpdateQty(ctx, c, item.ID, 0))
	require.Empty(t, c.Items)

	require.ErrorIs(t, svc.UpdateQty(ctx, c, item.ID, 3), ErrNotFound)
	require.ErrorIs(t, svc.RemoveItem(ctx, c, item.ID), ErrNotFound)
}

func TestServiceRejectsOversizedLines(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := &Cart{ID: "c"}

	_, err := svc.AddItem(ctx, c, "p1", "Mug", 5, 2_000_000_000_000_000_000)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(ctx, c, "p1", "Mug", MaxLineQty+1, 1000)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, c.Items)

	item, err := svc.AddItem(ctx, c, "p1", "Mug", MaxLineQty, MaxUnitPrice)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c, "p1", "Mug", 1, 1000)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, MaxLineQty, c.Items[0].Qty)
	require.Equal(t, MaxUnitPrice, c.Items[0].UnitPrice)

	require.ErrorIs(t, svc.UpdateQty(ctx, c, item.ID, MaxLineQty+1), ErrInvalidInput)
	require.Equal(t, MaxLineQty, c.Items[0].Qty)
	require.Positive(t, c.Subtotal())
}
