package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/metrics"
	"keyrental-backend/internal/service"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the rental JSON API.
type Handler struct {
	allocation service.AllocationService
	directory  service.DirectoryService
	admin      service.AdminService
	catalog    service.CatalogService
	health     Pinger
	retry      RetryPolicy
}

func NewHandler(
	allocation service.AllocationService,
	directory service.DirectoryService,
	admin service.AdminService,
	catalog service.CatalogService,
	health Pinger,
	retry RetryPolicy,
) *Handler {
	return &Handler{
		allocation: allocation,
		directory:  directory,
		admin:      admin,
		catalog:    catalog,
		health:     health,
		retry:      retry.withDefaults(),
	}
}

// NewRouter registers every route of the API on a fresh router.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, recoveryMiddleware)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/students/import", h.ImportStudents).Methods(http.MethodPost)
	api.HandleFunc("/students/{studentId}", h.LookupStudent).Methods(http.MethodGet)

	api.HandleFunc("/rentals", h.Checkout).Methods(http.MethodPost)
	api.HandleFunc("/rentals/current", h.ListActiveTransactions).Methods(http.MethodGet)
	api.HandleFunc("/rentals/history", h.ListHistory).Methods(http.MethodGet)
	api.HandleFunc("/rentals/usage", h.UsageSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9]+}/return", h.ReturnTransaction).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id:[0-9]+}/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/rental-items/{id:[0-9]+}/return", h.ReturnItem).Methods(http.MethodPost)

	api.HandleFunc("/organizations", h.ListOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/organizations", h.AddOrganization).Methods(http.MethodPost)
	api.HandleFunc("/organizations/members", h.ListOrganizationMembers).Methods(http.MethodGet)
	api.HandleFunc("/organizations/import", h.ImportOrganizations).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id:[0-9]+}", h.UpdateOrganization).Methods(http.MethodPut)
	api.HandleFunc("/organizations/{id:[0-9]+}", h.DeleteOrganization).Methods(http.MethodDelete)
	api.HandleFunc("/admin/reset-directory", h.ResetDirectory).Methods(http.MethodPost)

	api.HandleFunc("/practice-rooms", h.ListPracticeRooms).Methods(http.MethodGet)
	api.HandleFunc("/print-rooms", h.ListPrintRooms).Methods(http.MethodGet)
	api.HandleFunc("/storage-units", h.ListStorageUnits).Methods(http.MethodGet)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		writeErrorStatus(w, r, http.StatusServiceUnavailable, "database unreachable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidArgument, name)
	}
	return v, nil
}

func pathInt32(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidArgument, name)
	}
	return int32(v), nil
}

// queryInt reads an optional integer query parameter; absent means zero.
func queryInt(r *http.Request, name string, bitSize int) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, bitSize)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidArgument, name)
	}
	return v, nil
}

func (h *Handler) LookupStudent(w http.ResponseWriter, r *http.Request) {
	rows, err := h.directory.LookupStudent(r.Context(), mux.Vars(r)["studentId"])
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStudent) {
			writeErrorStatus(w, r, http.StatusNotFound, err.Error(), err)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(rows))
}

func (h *Handler) ListPracticeRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.catalog.ListPracticeRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) ListPrintRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.catalog.ListPrintRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) ListStorageUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.catalog.ListStorageUnits(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}
