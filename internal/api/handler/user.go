package handler

import (
	"net/http"

	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
)

type Users struct {
	users *core.UserService
}

func NewUsers(users *core.UserService) *Users {
	return &Users{users: users}
}

// List returns every account with its package resolved. Mounted behind
// RequireAdmin.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}
