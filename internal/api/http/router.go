package http

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/security"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"

	"github.com/gorilla/mux"
)

// Services are the dependencies the REST API serves.
type Services struct {
	Bookings     service.BookingService
	Equipment    service.EquipmentService
	Units        service.UnitService
	Availability service.AvailabilityChecker
	Pricing      service.PricingCalculator
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter registers every route behind logging and authentication.
func NewRouter(svcs Services, tm security.TokenManager, db Pinger) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)
	r.Use(NewAuthMiddleware(tm).Middleware)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz(db)).Methods(http.MethodGet)

	NewBookingHandler(svcs.Bookings).Register(r)
	NewEquipmentHandler(svcs.Equipment, svcs.Units, svcs.Availability, svcs.Pricing).Register(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatusError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeStatusError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

var _ Pinger = (*sql.DB)(nil)
