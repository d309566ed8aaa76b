package httpserver

import (
	"net/http"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/auth"
	"fieldsafe/internal/httpserver/handlers"
	"fieldsafe/internal/obs"
	"fieldsafe/internal/services/ai"
	"fieldsafe/internal/tenant"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, lg *zap.SugaredLogger, aiClient *ai.Client) http.Handler {
	rec := audit.NewRecorder(db, lg)
	perms := tenant.GormPermissionStore{DB: db}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger, obs.Instrument)
	r.Post("/v1/auth/login", handlers.Login(db, lg))
	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db))
		protected.Use(tenant.Middleware(db, lg))
		protected.Get("/v1/me", handlers.Me(db, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(db))
		protected.Post("/v1/auth/password", handlers.ChangePassword(db, lg))

		protected.Get("/v1/organizations", handlers.ListOrganizations(db, lg))
		protected.Group(func(orgAdmin chi.Router) {
			orgAdmin.Use(tenant.RequirePermission(perms, tenant.PermManageOrganizations))
			orgAdmin.Post("/v1/organizations", handlers.CreateOrganization(db, lg, rec))
			orgAdmin.Put("/v1/organizations/{id}", handlers.UpdateOrganization(db, lg, rec))
			orgAdmin.Delete("/v1/organizations/{id}", handlers.DeleteOrganization(db, lg, rec))
		})

		protected.Get("/v1/inspections", handlers.ListInspections(db, lg))
		protected.Get("/v1/inspections/{id}/items", handlers.ListInspectionItems(db, lg))
		protected.Get("/v1/inspections/{id}/actions", handlers.ListActionItems(db, lg))
		protected.Group(func(insp chi.Router) {
			insp.Use(tenant.RequirePermission(perms, tenant.PermManageInspections))
			insp.Post("/v1/inspections", handlers.CreateInspection(db, lg, rec))
			insp.Put("/v1/inspections/{id}", handlers.UpdateInspection(db, lg, rec))
			insp.Delete("/v1/inspections/{id}", handlers.DeleteInspection(db, lg, rec))
			insp.Post("/v1/inspections/{id}/items", handlers.CreateInspectionItem(db, lg, rec))
			insp.Patch("/v1/inspections/{id}/responses/{itemId}", handlers.UpdateItemResponse(db, lg, rec, aiClient))
			insp.Post("/v1/inspections/{id}/actions", handlers.CreateActionItem(db, lg, rec))
		})

		protected.Get("/v1/logs", handlers.MyLogs(db, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(tenant.RequireSystemAdmin)
			admin.Get("/v1/permissions", handlers.ListPermissions(db, lg))
			admin.Put("/v1/permissions", handlers.UpdatePermissions(db, lg, rec))
			admin.Get("/v1/admin/users", handlers.ListUsers(db, lg))
			admin.Post("/v1/admin/users", handlers.CreateUser(db, lg, rec))
			admin.Patch("/v1/admin/users/{id}", handlers.UpdateUser(db, lg, rec))
			admin.Delete("/v1/admin/users/{id}", handlers.DeleteUser(db, lg, rec))
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	return r
}
