package threshold

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-volume-discounts/internal/content"
)

type tier struct {
	title, qty, pct, status string
}

func seed(t *testing.T, store content.Store, tiers ...tier) {
	t.Helper()
	for _, tr := range tiers {
		_, err := store.Create(context.Background(), content.Record{
			Type:   Type,
			Title:  tr.title,
			Status: tr.status,
			Meta:   map[string]string{MetaRequiredQuantity: tr.qty, MetaDiscountPercent: tr.pct},
		})
		require.NoError(t, err)
	}
}

func TestRepositoryBest(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore()
	repo := NewRepository(store)
	seed(t, store,
		tier{"Buy 5", "5", "10", content.StatusPublish},
		tier{"Buy 10", "10", "20", content.StatusPublish},
		tier{"Pending 6", "6", "40", content.StatusPending},
		tier{"Draft 8", "8", "50", content.StatusDraft},
	)

	best, ok, err := repo.Best(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Buy 5", best.Title)
	require.Equal(t, int64(10), best.DiscountPercent)

	qty, err := repo.RequiredQuantity(ctx, best.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), qty)

	best, ok, err = repo.Best(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Buy 10", best.Title)

	best, ok, err = repo.Best(ctx, 12)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Buy 10", best.Title)

	_, ok, err = repo.Best(ctx, 3)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = NewRepository(content.NewMemoryStore()).Best(ctx, 100)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepositoryBestIsTrueMaximum(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore()
	repo := NewRepository(store)
	tiers := []tier{
		{"Buy 5", "5", "10", content.StatusPublish},
		{"Buy 10", "10", "20", content.StatusPublish},
		{"Buy 13", "13", "25", content.StatusPublish},
		{"Draft 8", "8", "50", content.StatusDraft},
		{"Pending 16", "16", "60", content.StatusPending},
		{"Zero", "0", "90", content.StatusPublish},
		{"Junk", "lots", "5", content.StatusPublish},
	}
	seed(t, store, tiers...)

	for qty := int64(0); qty <= 20; qty++ {
		var (
			want  int64
			found bool
		)
		for _, tr := range tiers {
			n := content.NumericValue(tr.qty)
			if tr.status == content.StatusPublish && n <= qty && (!found || n > want) {
				want, found = n, true
			}
		}
		got, ok, err := repo.Best(ctx, qty)
		require.NoError(t, err)
		require.Equal(t, found, ok, "qty %d", qty)
		require.Equal(t, want, got.RequiredQuantity, "qty %d", qty)
		require.Equal(t, content.StatusPublish, got.Status, "qty %d", qty)
	}
}

func TestRequiredQuantityMissingReadsZero(t *testing.T) {
	ctx := context.Background()
	store := content.NewMemoryStore()
	rec, err := store.Create(ctx, content.Record{Type: Type, Title: "Bare", Status: content.StatusPublish})
	require.NoError(t, err)

	qty, err := NewRepository(store).RequiredQuantity(ctx, rec.ID)
	require.NoError(t, err)
	require.Zero(t, qty)
}
