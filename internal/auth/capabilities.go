package auth

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-volume-discounts/internal/common"
)

// Capabilities granted to shop staff.
const (
	// CapEditShopDiscounts opens the discount admin screens.
	CapEditShopDiscounts = "edit_shop_discounts"
	// CapManageShopDiscounts allows saving and deleting discounts.
	CapManageShopDiscounts = "manage_shop_discounts"
)

// Can reports whether the request actor holds capability.
func Can(ctx context.Context, capability string) bool {
	actor, ok := common.ActorFrom(ctx)
	return ok && actor.Has(capability)
}

// RequireCapability rejects requests whose actor lacks capability. It expects
// RequireAuth to have run.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := common.ActorFrom(r.Context()); !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			if !Can(r.Context(), capability) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
