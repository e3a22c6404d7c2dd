package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keyrental-backend/internal/domain"
)

const namespace = "keyrental"

// Checkout outcomes.
const (
	ResultOK      = "ok"
	ResultRefused = "refused"
	ResultError   = "error"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout requests by rental kind and outcome.",
	}, []string{"kind", "result"})

	CheckoutRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_retries_total",
		Help:      "Checkout attempts repeated after a storage failure.",
	})

	ReturnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Transactions and items moved to returned, by target.",
	}, []string{"target"})

	ReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_rentals_total",
		Help:      "Duplicate active rentals closed by reconciliation.",
	})
)

// CheckoutResult classifies a checkout error for the outcome label.
func CheckoutResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case domain.IsBusinessRule(err), errors.Is(err, domain.ErrInvalidArgument):
		return ResultRefused
	}
	return ResultError
}

// KindLabel keeps the kind label bounded to the known rental kinds.
func KindLabel(a domain.Allocation) string {
	if a == nil {
		return "unknown"
	}
	return string(a.Kind())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
