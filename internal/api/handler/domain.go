package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailpanel/internal/api/request"
	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
	"github.com/edvin/mailpanel/internal/model"
)

type Domain struct {
	domains *core.DomainService
}

func NewDomain(domains *core.DomainService) *Domain {
	return &Domain{domains: domains}
}

type provisionResponse struct {
	Domain            *model.Domain `json:"domain"`
	PerMailboxQuotaMB int           `json:"per_mailbox_quota_mb"`
}

// List returns the caller's domains.
func (h *Domain) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	domains, err := h.domains.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	if domains == nil {
		domains = []model.Domain{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": domains})
}

// Get returns one of the caller's domains.
func (h *Domain) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	domain, err := h.domains.GetByID(r.Context(), claims.Sub, id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, domain)
}

// Create provisions a new domain with the requested allocation.
func (h *Domain) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req request.CreateDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.domains.Create(r.Context(), claims.Sub, core.ProvisionRequest{
		Name:      req.Name,
		StorageMB: req.StorageMB,
		Mailboxes: req.Mailboxes,
		Aliases:   req.Aliases,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, provisionResponse{
		Domain:            result.Domain,
		PerMailboxQuotaMB: result.PerMailboxQuotaMB,
	})
}

// Update resizes an existing domain's allocation.
func (h *Domain) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateDomain
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.domains.Update(r.Context(), claims.Sub, id, core.ProvisionRequest{
		StorageMB: req.StorageMB,
		Mailboxes: req.Mailboxes,
		Aliases:   req.Aliases,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, provisionResponse{
		Domain:            result.Domain,
		PerMailboxQuotaMB: result.PerMailboxQuotaMB,
	})
}

// Delete removes a domain and its remote resources.
func (h *Domain) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.domains.Delete(r.Context(), claims.Sub, id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
