package tenant

import (
	"fieldsafe/internal/models"

	"gorm.io/gorm"
)

// Permission types consulted by handlers.
const (
	PermManageOrganizations = "manage_organizations"
	PermManageInspections   = "manage_inspections"
	PermManageUsers         = "manage_users"
	PermManageActions       = "manage_actions"
	PermViewReports         = "view_reports"
)

// PermissionStore answers (role, permission_type) allow decisions.
type PermissionStore interface {
	IsAllowed(role models.Role, permissionType string) bool
}

// GormPermissionStore resolves permissions against stored rows.
// Resolution order: system_admin short-circuits to true; an explicit row
// wins; a missing row denies (fail closed).
type GormPermissionStore struct {
	DB *gorm.DB
}

func (s GormPermissionStore) IsAllowed(role models.Role, permissionType string) bool {
	if role == models.RoleSystemAdmin {
		return true
	}
	var rp models.RolePermission
	err := s.DB.First(&rp, "role = ? AND permission_type = ?", role, permissionType).Error
	if err != nil {
		return false
	}
	return rp.IsAllowed
}

// DefaultPermissions are the global rows seeded at startup when absent.
func DefaultPermissions() []models.RolePermission {
	return []models.RolePermission{
		{Role: models.RoleOrgAdmin, PermissionType: PermManageOrganizations, IsAllowed: true},
		{Role: models.RoleOrgAdmin, PermissionType: PermManageInspections, IsAllowed: true},
		{Role: models.RoleOrgAdmin, PermissionType: PermManageUsers, IsAllowed: true},
		{Role: models.RoleOrgAdmin, PermissionType: PermManageActions, IsAllowed: true},
		{Role: models.RoleOrgAdmin, PermissionType: PermViewReports, IsAllowed: true},
		{Role: models.RoleManager, PermissionType: PermManageInspections, IsAllowed: true},
		{Role: models.RoleManager, PermissionType: PermManageActions, IsAllowed: true},
		{Role: models.RoleManager, PermissionType: PermViewReports, IsAllowed: true},
		{Role: models.RoleInspector, PermissionType: PermManageInspections, IsAllowed: true},
		{Role: models.RoleClientViewer, PermissionType: PermViewReports, IsAllowed: true},
	}
}
