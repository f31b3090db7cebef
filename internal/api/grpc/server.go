// Package grpc serves the standard health and reflection services next to the REST API.
package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/api/grpc/interceptor"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/security"
)

// ServiceName is the health service name reported for the reservation core.
const ServiceName = "inventory.Reservations"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	*grpc.Server
	health *health.Server
	db     Pinger
}

func NewServer(tm security.TokenManager, db Pinger) *Server {
	auth := interceptor.NewAuthInterceptor(tm)
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Logging(), auth.Unary()),
		grpc.ChainStreamInterceptor(auth.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{Server: gs, health: hs, db: db}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// CheckOnce pings the database and updates the serving status.
func (s *Server) CheckOnce(ctx context.Context) {
	if s.db == nil {
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		logger.Warn("Database ping failed, reporting NOT_SERVING", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// WatchHealth runs CheckOnce every interval until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and stops gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GracefulStop()
}
