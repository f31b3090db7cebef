package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/config"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/security"

	"github.com/gorilla/mux"
)

const kindUnauthenticated domain.ErrorKind = "UNAUTHENTICATED"

// routeKey identifies the matched route the way EndpointSecurityConfig does.
func routeKey(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.Method + " " + r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.Method + " " + r.URL.Path
	}
	return r.Method + " " + tpl
}

// AuthMiddleware validates the bearer token for every non-public route and
// attaches the caller as a domain.Actor.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeKey(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeStatusError(w, http.StatusUnauthorized, kindUnauthenticated, "authorization token is not provided")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeStatusError(w, http.StatusUnauthorized, kindUnauthenticated, err.Error())
			return
		}

		actor := claims.Actor()
		if level == config.SecurityAdmin && !actor.HasRole(domain.RoleAdmin) {
			writeError(w, domain.NewForbiddenError(routeKey(r)))
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	header = strings.TrimSpace(header)
	return header, header != ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs each request and observes its latency.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		key := routeKey(r)
		route := strings.TrimPrefix(key, r.Method+" ")
		metrics.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())
		logger.Debug("HTTP request", "route", key, "status", rec.status, "duration", elapsed)
	})
}
