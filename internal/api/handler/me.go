package handler

import (
	"net/http"

	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
)

type Me struct {
	users *core.UserService
}

func NewMe(users *core.UserService) *Me {
	return &Me{users: users}
}

// Get returns the authenticated user's profile and plan.
func (h *Me) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	profile, err := h.users.Me(r.Context(), claims.Sub)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, profile)
}

// Stats returns the user's allocation totals against their plan ceilings.
func (h *Me) Stats(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	stats, err := h.users.Stats(r.Context(), claims.Sub)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, stats)
}
