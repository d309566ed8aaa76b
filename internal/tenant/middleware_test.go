package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldsafe/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakePermissionStore map[string]bool

func (s fakePermissionStore) IsAllowed(role models.Role, permissionType string) bool {
	if role == models.RoleSystemAdmin {
		return true
	}
	return s[string(role)+"/"+permissionType]
}

func TestRequirePermissionDeniesWithoutStoredRow(t *testing.T) {
	store := fakePermissionStore{}
	h := RequirePermission(store, PermManageInspections)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/inspections", nil)
	tc, _ := Resolve(models.User{ID: "u", Role: models.RoleClientViewer, OrganizationID: uintPtr(1)}, fakeDirectory{})
	req = req.WithContext(WithContext(req.Context(), tc))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequirePermissionAllowsStoredRowAndSystemAdmin(t *testing.T) {
	store := fakePermissionStore{"inspector/" + PermManageInspections: true}
	h := RequirePermission(store, PermManageInspections)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, u := range []models.User{
		{ID: "i", Role: models.RoleInspector, OrganizationID: uintPtr(1)},
		{ID: "s", Role: models.RoleSystemAdmin},
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/inspections", nil)
		tc, _ := Resolve(u, fakeDirectory{})
		req = req.WithContext(WithContext(req.Context(), tc))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "role %s", u.Role)
	}
}

func TestRequireSystemAdmin(t *testing.T) {
	h := RequireSystemAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	tc, _ := Resolve(models.User{ID: "m", Role: models.RoleManager, OrganizationID: uintPtr(1)}, fakeDirectory{})
	req = req.WithContext(WithContext(req.Context(), tc))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	tc, _ = Resolve(models.User{ID: "s", Role: models.RoleSystemAdmin}, fakeDirectory{})
	req = req.WithContext(WithContext(req.Context(), tc))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMissingTenantContextAuthorizesNothing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	tc := FromContext(req.Context())
	assert.True(t, tc.Empty())
	assert.False(t, tc.CanAccess(1))
	assert.False(t, tc.IsSystemAdmin)
}
