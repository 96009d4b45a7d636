package common

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNonNegativeInt(t *testing.T) {
	cases := map[string]int64{
		"":      0,
		"7":     7,
		" 12 ":  12,
		"-3":    0,
		"abc":   0,
		"12abc": 12,
		"+4":    4,
		"-":     0,
	}
	for in, want := range cases {
		require.Equal(t, want, NonNegativeInt(in), "input %q", in)
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	require.False(t, ok)

	ctx := WithActor(context.Background(), Actor{ID: "u-1", Capabilities: []string{"edit_shop_discounts"}})
	actor, ok := ActorFrom(ctx)
	require.True(t, ok)
	require.True(t, actor.Has("edit_shop_discounts"))
	require.False(t, actor.Has("manage_shop_discounts"))

	id, ok := UserID(ctx)
	require.True(t, ok)
	require.Equal(t, "u-1", id)
}

func TestWriteAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAppError(rec, NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, errors.New("missing")))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = httptest.NewRecorder()
	WriteAppError(rec, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPaginationWindow(t *testing.T) {
	start, end := Pagination{Page: 2, PerPage: 10, TotalItems: 15}.Window()
	require.Equal(t, 10, start)
	require.Equal(t, 15, end)

	start, end = Pagination{Page: 5, PerPage: 10, TotalItems: 15}.Window()
	require.Equal(t, 15, start)
	require.Equal(t, 15, end)
}

func TestIdempotencyRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusCreated, send())
	require.Equal(t, http.StatusConflict, send())
	require.Equal(t, 1, calls)
}
