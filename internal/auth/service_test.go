package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-volume-discounts/internal/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: "test-secret", Issuer: "toko", Audience: "toko-admin"})
	require.NoError(t, err)
	return svc
}

func TestIssueAndParseToken(t *testing.T) {
	svc := newTestService(t)
	token, exp, err := svc.Issue("admin-1", []string{CapEditShopDiscounts, CapManageShopDiscounts}, 0)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	actor, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin-1", actor.ID)
	require.True(t, actor.Has(CapManageShopDiscounts))
}

func TestParseTokenRejects(t *testing.T) {
	svc := newTestService(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return fixed })
	token, _, err := svc.Issue("admin-1", nil, time.Minute)
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return fixed.Add(time.Hour) })
	_, err = svc.ParseToken(token)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)

	other, err := NewService(Config{Secret: "other-secret", Issuer: "toko", Audience: "toko-admin"})
	require.NoError(t, err)
	other.WithNow(func() time.Time { return fixed })
	svc.WithNow(func() time.Time { return fixed })
	forged, _, err := other.Issue("admin-1", []string{CapManageShopDiscounts}, time.Minute)
	require.NoError(t, err)
	_, err = svc.ParseToken(forged)
	require.Error(t, err)

	_, err = svc.ParseToken("   ")
	require.Error(t, err)
	_, err = svc.ParseToken("not.a.jwt")
	require.Error(t, err)

	_, _, err = svc.Issue("", nil, 0)
	require.Error(t, err)
	_, err = NewService(Config{})
	require.Error(t, err)
}

func TestRequireAuthAndCapability(t *testing.T) {
	svc := newTestService(t)
	mw := Middleware{Service: svc}
	handler := mw.RequireAuth(RequireCapability(CapEditShopDiscounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, Can(r.Context(), CapEditShopDiscounts))
		w.WriteHeader(http.StatusNoContent)
	})))

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/volume-discounts", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, send(""))
	require.Equal(t, http.StatusUnauthorized, send("garbage"))

	viewer, _, err := svc.Issue("viewer", []string{"read"}, 0)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, send(viewer))

	editor, _, err := svc.Issue("editor", []string{CapEditShopDiscounts}, 0)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, send(editor))
}

func TestAuthenticateIsOptional(t *testing.T) {
	mw := Middleware{Service: newTestService(t)}
	var seen bool
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = common.ActorFrom(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, seen)
	require.False(t, Can(context.Background(), CapEditShopDiscounts))
}
