package http

import (
	"net/http"

	"keyrental-backend/internal/domain"
)

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.admin.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	writeJSON(w, http.StatusOK, orgs)
}

// ListOrganizationMembers returns every organization with its members, or a
// single one when orgId is given.
func (h *Handler) ListOrganizationMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := queryInt(r, "orgId", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := h.admin.ListOrganizationMembers(r.Context(), int32(orgID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if members == nil {
		members = []domain.OrganizationMembers{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) AddOrganization(w http.ResponseWriter, r *http.Request) {
	var org domain.Organization
	if err := decodeJSON(r, &org); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.admin.AddOrganization(r.Context(), &org); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var org domain.Organization
	if err := decodeJSON(r, &org); err != nil {
		writeError(w, r, err)
		return
	}
	org.ID = id
	if err := h.admin.UpdateOrganization(r.Context(), &org); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.admin.DeleteOrganization(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ImportOrganizations(w http.ResponseWriter, r *http.Request) {
	var body organizationImportRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.admin.ImportOrganizations(r.Context(), body.Organizations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	var body studentImportRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.admin.ImportStudents(r.Context(), body.Students, body.ReplaceOrgMemberships, body.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, studentImportResponse{Imported: n})
}

func (h *Handler) ResetDirectory(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ResetDirectory(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
