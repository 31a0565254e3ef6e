package handler

import (
	"net/http"

	"github.com/edvin/mailpanel/internal/api/middleware"
	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/model"
)

// requireClaims extracts JWT claims or writes a 401. The auth middleware
// guarantees claims on protected routes; this guards against miswired routes.
func requireClaims(w http.ResponseWriter, r *http.Request) (*model.JWTClaims, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing claims")
		return nil, false
	}
	return claims, true
}
