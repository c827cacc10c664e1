package handlers

import (
	"context"
	"net/http"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

const (
	ActorIDHeader 	= "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

type actorKey struct{}

type actor struct {
	ID 		string
	Role 	domain.ActorRole
}

// RequireActor resolves the calling actor from the identity headers set by the gateway.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ActorIDHeader)
		if id == "" {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "missing "+ActorIDHeader+" header")
			return
		}
		role, err := domain.ParseActorRole(r.Header.Get(ActorRoleHeader))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only actors resolved by RequireActor with one of roles.
func RequireRole(roles ...domain.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actorFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "missing actor")
				return
			}
			for _, role := range roles {
				if a.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "unauthorized", "role "+a.Role.String()+" may not call this endpoint")
		})
	}
}

func actorFromContext(ctx context.Context) (actor, bool) {
	a, ok := ctx.Value(actorKey{}).(actor)
	return a, ok
}
