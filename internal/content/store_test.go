package content

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testType = "volume_discount"

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("crud and meta", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		rec, err := store.Create(ctx, Record{Type: testType, Title: "Bulk", Meta: map[string]string{"qty": "5"}})
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)
		require.Equal(t, StatusDraft, rec.Status)

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		require.Equal(t, "5", got.Meta["qty"])

		updated, err := store.Update(ctx, rec.ID, "Bulk 10", StatusPending)
		require.NoError(t, err)
		require.Equal(t, "Bulk 10", updated.Title)
		require.Equal(t, StatusPending, updated.Status)

		require.NoError(t, store.SetStatus(ctx, rec.ID, StatusPublish))
		require.NoError(t, store.UpdateMeta(ctx, rec.ID, "qty", "7"))
		v, ok, err := store.GetMeta(ctx, rec.ID, "qty")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "7", v)

		require.NoError(t, store.DeleteMeta(ctx, rec.ID, "qty"))
		_, ok, err = store.GetMeta(ctx, rec.ID, "qty")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, store.Delete(ctx, rec.ID))
		_, err = store.Get(ctx, rec.ID)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.UpdateMeta(ctx, rec.ID, "qty", "1"), ErrNotFound)
	})

	t.Run("unknown ids", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		_, err := store.Get(ctx, "not-a-uuid")
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.SetStatus(ctx, "8d2f1c9e-4b53-4a8e-9d0a-0b8b6f3f2a11", StatusPublish), ErrNotFound)
		require.ErrorIs(t, store.Delete(ctx, "8d2f1c9e-4b53-4a8e-9d0a-0b8b6f3f2a11"), ErrNotFound)
	})

	t.Run("find max meta at most", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		mk := func(title, status string, meta map[string]string) Record {
			rec, err := store.Create(ctx, Record{Type: testType, Title: title, Status: status, Meta: meta})
			require.NoError(t, err)
			return rec
		}
		mk("five", StatusPublish, map[string]string{"n": "5"})
		ten := mk("ten", StatusPublish, map[string]string{"n": "10"})
		mk("draft eight", StatusDraft, map[string]string{"n": "8"})
		mk("junk", StatusPublish, map[string]string{"n": "lots"})
		mk("no meta", StatusPublish, nil)
		_, err := store.Create(ctx, Record{Type: "other", Status: StatusPublish, Meta: map[string]string{"n": "6"}})
		require.NoError(t, err)

		got, ok, err := store.FindMaxMetaAtMost(ctx, testType, StatusPublish, "n", 7)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "five", got.Title)

		got, ok, err = store.FindMaxMetaAtMost(ctx, testType, StatusPublish, "n", 12)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, ten.ID, got.ID)

		got, ok, err = store.FindMaxMetaAtMost(ctx, testType, StatusPublish, "n", 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "junk", got.Title, "non-numeric values read as zero")

		list, err := store.List(ctx, testType, StatusPublish)
		require.NoError(t, err)
		require.Len(t, list, 4)
		all, err := store.List(ctx, testType, "")
		require.NoError(t, err)
		require.Len(t, all, 5)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store := NewMemoryStore()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		tick := 0
		store.Now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}
		return store
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CONTENT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CONTENT_TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate(dsn))
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		_, err = pool.Exec(ctx, `TRUNCATE content_records CASCADE`)
		require.NoError(t, err)
		store := NewPostgresStore(pool)
		base := time.Now().UTC()
		tick := 0
		store.now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}
		return store
	})
}

func TestNumericValue(t *testing.T) {
	cases := map[string]int64{
		"5":                   5,
		" 12 ":                12,
		"-3":                  -3,
		"+4":                  4,
		"":                    0,
		"abc":                 0,
		"1.5":                 0,
		"--1":                 0,
		"1234567890123456789": 0,
	}
	for in, want := range cases {
		require.Equal(t, want, NumericValue(in), "input %q", in)
	}
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/app", migrateURL("postgres://u:p@db:5432/app"))
	require.Equal(t, "pgx5://db/app", migrateURL("postgresql://db/app"))
	require.Equal(t, "pgx5://db/app", migrateURL("pgx5://db/app"))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
