package tenant

import (
	"net/http"

	"fieldsafe/internal/auth"
	"fieldsafe/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Middleware resolves the authenticated subject into a stored user and a
// fresh tenant Context before any handler logic runs. It must sit after
// auth.JWTAuth in the chain. The resulting Context is immutable and
// threaded through the request context; nothing downstream mutates it.
func Middleware(db *gorm.DB, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := auth.ResolveUser(db, auth.Subject(r.Context()))
			if err != nil {
				http.Error(w, "unknown identity", http.StatusUnauthorized)
				return
			}
			tc, err := Resolve(u, GormDirectory{DB: db})
			if err != nil {
				lg.Errorw("tenant resolution failed", "user_id", u.ID, "error", err)
				http.Error(w, "scope resolution failed", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// RequireSystemAdmin gates administrative routes.
func RequireSystemAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsSystemAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission gates a route on a stored role permission.
func RequirePermission(store PermissionStore, permissionType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := FromContext(r.Context())
			if tc.Role == models.Role("") || !store.IsAllowed(tc.Role, permissionType) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
