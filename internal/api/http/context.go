package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"

	"github.com/gorilla/mux"
)

type contextKey int

const actorKey contextKey = iota

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the identity the auth middleware attached to the request.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// pathID parses the named route variable as a positive int32.
func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid %s %q", name, raw)
	}
	return int32(id), nil
}

// queryInt32 parses an optional query parameter, returning def when it is absent.
func queryInt32(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.NewValidationError("invalid %s %q", name, raw)
	}
	return int32(v), nil
}
