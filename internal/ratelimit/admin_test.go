package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-volume-discounts/internal/common"
)

func TestFixedWindowPerActor(t *testing.T) {
	store, err := NewStore(nil, "admin")
	require.NoError(t, err)
	mw, err := FixedWindow(store, "2-M", ByActor)
	require.NoError(t, err)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func(actor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/volume-discounts", nil)
		req = req.WithContext(common.WithActor(req.Context(), common.Actor{ID: actor}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, send("a"))
	require.Equal(t, http.StatusOK, send("a"))
	require.Equal(t, http.StatusTooManyRequests, send("a"))
	require.Equal(t, http.StatusOK, send("b"))
}

func TestFixedWindowRejectsBadRate(t *testing.T) {
	store, err := NewStore(nil, "admin")
	require.NoError(t, err)
	_, err = FixedWindow(store, "lots", ByActor)
	require.Error(t, err)
}
