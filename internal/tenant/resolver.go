package tenant

import (
	"fieldsafe/internal/models"

	"gorm.io/gorm"
)

// OrganizationDirectory answers hierarchy lookups for scope resolution.
type OrganizationDirectory interface {
	// ChildOrganizationIDs returns the ids of organizations whose
	// parent_organization_id equals parentID.
	ChildOrganizationIDs(parentID uint) ([]uint, error)
}

// Resolve computes the tenant scope for a stored user.
//
// system_admin gets the universal set. An org_admin with a managed
// organization gets the managed organization plus its direct children —
// exactly one hierarchy level; grandchildren are out of scope by policy.
// Everyone else gets their home organization, or nothing.
//
// Children are found by a single filtered scan, never by recursive
// traversal: parent pointers are not validated at write time, so cyclic
// or duplicated pointers must not be able to loop the resolver.
func Resolve(u models.User, dir OrganizationDirectory) (Context, error) {
	tc := Context{
		UserID:                u.ID,
		Role:                  u.Role,
		ManagedOrganizationID: u.ManagedOrganizationID,
	}
	if u.Role == models.RoleSystemAdmin {
		tc.IsSystemAdmin = true
		tc.universal = true
		return tc, nil
	}
	tc.accessible = make(map[uint]struct{})
	if u.Role == models.RoleOrgAdmin && u.ManagedOrganizationID != nil {
		managed := *u.ManagedOrganizationID
		tc.accessible[managed] = struct{}{}
		children, err := dir.ChildOrganizationIDs(managed)
		if err != nil {
			return Context{}, err
		}
		for _, id := range children {
			tc.accessible[id] = struct{}{}
		}
		return tc, nil
	}
	tc.ManagedOrganizationID = nil
	if u.OrganizationID != nil {
		tc.accessible[*u.OrganizationID] = struct{}{}
	}
	return tc, nil
}

// GormDirectory is the database-backed OrganizationDirectory.
type GormDirectory struct {
	DB *gorm.DB
}

func (d GormDirectory) ChildOrganizationIDs(parentID uint) ([]uint, error) {
	var ids []uint
	err := d.DB.Model(&models.Organization{}).
		Where("parent_organization_id = ?", parentID).
		Pluck("id", &ids).Error
	return ids, err
}
