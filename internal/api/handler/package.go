package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailpanel/internal/api/request"
	"github.com/edvin/mailpanel/internal/api/response"
	"github.com/edvin/mailpanel/internal/core"
	"github.com/edvin/mailpanel/internal/model"
)

type Package struct {
	packages *core.PackageService
}

func NewPackage(packages *core.PackageService) *Package {
	return &Package{packages: packages}
}

// List returns all packages. Public.
func (h *Package) List(w http.ResponseWriter, r *http.Request) {
	packages, err := h.packages.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	if packages == nil {
		packages = []model.Package{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": packages})
}

// Get returns a single package. Public.
func (h *Package) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.packages.Get(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, pkg)
}

// Create adds a package. Admin.
func (h *Package) Create(w http.ResponseWriter, r *http.Request) {
	var req request.UpsertPackage
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.packages.Create(r.Context(), packageInput(req))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, pkg)
}

// Update edits a package. Admin.
func (h *Package) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpsertPackage
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.packages.Update(r.Context(), id, packageInput(req))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, pkg)
}

// Delete removes a package. Admin.
func (h *Package) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.packages.Delete(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func packageInput(req request.UpsertPackage) core.PackageInput {
	return core.PackageInput{
		Name:           req.Name,
		Price:          req.Price,
		RenewPrice:     req.RenewPrice,
		MaxDomains:     req.MaxDomains,
		MaxMailboxes:   req.MaxMailboxes,
		MaxAliases:     req.MaxAliases,
		StorageLimitGB: req.StorageLimitGB,
		IsPopular:      req.IsPopular,
	}
}
