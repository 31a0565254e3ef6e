package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailpanel/internal/api/request"
	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
)

// Resources serves the mailboxes and aliases inside a provisioned domain.
type Resources struct {
	mailboxes *core.MailboxService
}

func NewResources(mailboxes *core.MailboxService) *Resources {
	return &Resources{mailboxes: mailboxes}
}

// List returns the live provider view of a domain's mailboxes and aliases.
func (h *Resources) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.mailboxes.ListResources(r.Context(), claims.Sub, id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, res)
}

// CreateMailbox creates a mailbox in the domain.
func (h *Resources) CreateMailbox(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateMailbox
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mb, err := h.mailboxes.CreateMailbox(r.Context(), claims.Sub, id, req.LocalPart, req.Name, req.Password)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, mb)
}

// DeleteMailbox removes a mailbox by address.
func (h *Resources) DeleteMailbox(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	address, err := request.RequireID(chi.URLParam(r, "address"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.mailboxes.DeleteMailbox(r.Context(), claims.Sub, id, address); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateAlias creates an alias in the domain.
func (h *Resources) CreateAlias(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateAlias
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.mailboxes.CreateAlias(r.Context(), claims.Sub, id, req.LocalPart, req.Target); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// DeleteAlias removes an alias by its provider id.
func (h *Resources) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	aliasID, err := strconv.Atoi(chi.URLParam(r, "aliasId"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid alias id")
		return
	}

	if err := h.mailboxes.DeleteAlias(r.Context(), claims.Sub, id, aliasID); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
