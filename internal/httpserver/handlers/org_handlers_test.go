package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
)

func organizationRows(id uint, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "type", "organization_level", "is_active", "created_at", "updated_at",
	}).AddRow(id, name, "company", "company", true, now, now)
}

// Deleting an organization with an active user is blocked with the
// has_users category and leaves is_active untouched.
func TestDeleteOrganizationBlockedByUsers(t *testing.T) {
	db, mock := newMockDB(t)
	lg := zap.NewNop().Sugar()
	rec := audit.NewRecorder(db, lg)

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(organizationRows(10, "Acme"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	req := httptest.NewRequest(http.MethodDelete, "/v1/organizations/10", nil)
	req = withURLParam(req, "id", "10")
	req = withTenant(req, models.User{ID: "b", Role: models.RoleOrgAdmin, ManagedOrganizationID: uintPtr(10)}, staticDirectory{})

	rr := httptest.NewRecorder()
	DeleteOrganization(db, lg, rec)(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
		Count  int64  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "has_users", body.Reason)
	assert.Equal(t, int64(1), body.Count)
	assert.Contains(t, body.Error, "active user")
	assert.NoError(t, mock.ExpectationsWereMet(), "no soft delete may run while blocked")
}

func TestDeleteOrganizationOutsideScopeIsForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	lg := zap.NewNop().Sugar()
	rec := audit.NewRecorder(db, lg)

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(organizationRows(99, "Other"))

	req := httptest.NewRequest(http.MethodDelete, "/v1/organizations/99", nil)
	req = withURLParam(req, "id", "99")
	req = withTenant(req, models.User{ID: "b", Role: models.RoleOrgAdmin, ManagedOrganizationID: uintPtr(10)}, staticDirectory{})

	rr := httptest.NewRecorder()
	DeleteOrganization(db, lg, rec)(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// An org admin creating a subsidiary cannot parent it to a foreign
// organization: the managed organization always wins.
func TestCreateOrganizationParentForcedToManaged(t *testing.T) {
	db, mock := newMockDB(t)
	lg := zap.NewNop().Sugar()
	rec := audit.NewRecorder(db, lg)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(42)))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	payload := []byte(`{"name":"Sub","parent_organization_id":9}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/organizations", bytes.NewReader(payload))
	req = withTenant(req, models.User{ID: "b", Role: models.RoleOrgAdmin, ManagedOrganizationID: uintPtr(1)}, staticDirectory{})

	rr := httptest.NewRecorder()
	CreateOrganization(db, lg, rec)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got models.Organization
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.ParentOrganizationID)
	assert.Equal(t, uint(1), *got.ParentOrganizationID)
	assert.Equal(t, "subsidiary", got.OrganizationLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
