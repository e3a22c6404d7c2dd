package http

import (
	"context"
	"net/http"

	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/metrics"
)

// Checkout records a new rental. Storage failures are retried with backoff
// before the caller sees a 503.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req := body.toDomain()

	var id int64
	err := retryWithBackoff(r.Context(), h.retry, func(ctx context.Context) error {
		var err error
		id, err = h.allocation.Checkout(ctx, req)
		return err
	})
	metrics.CheckoutsTotal.WithLabelValues(metrics.KindLabel(req.Allocation), metrics.CheckoutResult(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Checkout recorded", "transactionID", id, "studentID", req.StudentID, "rentalType", body.RentalType)
	writeJSON(w, http.StatusCreated, checkoutResponse{TransactionID: id})
}

func (h *Handler) ReturnTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.allocation.ReturnTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReturnItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.allocation.ReturnItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.allocation.ListItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapItems(items))
}

func (h *Handler) ListActiveTransactions(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.allocation.ListActiveTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTransactions(rentals))
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rentals, err := h.allocation.ListHistory(r.Context(), int(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTransactions(rentals))
}

func (h *Handler) UsageSnapshot(w http.ResponseWriter, r *http.Request) {
	usage, err := h.allocation.UsageSnapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
