package lifecycle

import (
	"fmt"

	"fieldsafe/internal/models"

	"gorm.io/gorm"
)

// BlockReason names the dependent category that blocked a deletion.
type BlockReason string

const (
	HasUsers        BlockReason = "has_users"
	HasSubsidiaries BlockReason = "has_subsidiaries"
	HasInspections  BlockReason = "has_inspections"
)

// ReferentialBlock is returned when an organization still has active
// dependents. Reason and Count tell the caller what to resolve first.
type ReferentialBlock struct {
	Reason BlockReason
	Count  int64
}

func (e *ReferentialBlock) Error() string {
	switch e.Reason {
	case HasUsers:
		return fmt.Sprintf("organization has %d active user(s)", e.Count)
	case HasSubsidiaries:
		return fmt.Sprintf("organization has %d active subsidiarie(s)", e.Count)
	default:
		return fmt.Sprintf("organization has %d inspection(s)", e.Count)
	}
}

// ReferenceStore answers dependent counts and performs the soft delete.
type ReferenceStore interface {
	ActiveUserCount(orgID uint) (int64, error)
	ActiveSubsidiaryCount(orgID uint) (int64, error)
	InspectionCount(orgID uint) (int64, error)
	Deactivate(orgID uint) error
}

// SoftDelete runs the referential guards in order (users, subsidiaries,
// inspections) and deactivates the organization only when all three
// counts are zero. Hard delete is never performed.
func SoftDelete(store ReferenceStore, orgID uint) error {
	users, err := store.ActiveUserCount(orgID)
	if err != nil {
		return err
	}
	if users > 0 {
		return &ReferentialBlock{Reason: HasUsers, Count: users}
	}
	subs, err := store.ActiveSubsidiaryCount(orgID)
	if err != nil {
		return err
	}
	if subs > 0 {
		return &ReferentialBlock{Reason: HasSubsidiaries, Count: subs}
	}
	inspections, err := store.InspectionCount(orgID)
	if err != nil {
		return err
	}
	if inspections > 0 {
		return &ReferentialBlock{Reason: HasInspections, Count: inspections}
	}
	return store.Deactivate(orgID)
}

// GormStore is the database-backed ReferenceStore.
type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) ActiveUserCount(orgID uint) (int64, error) {
	var n int64
	err := s.DB.Model(&models.User{}).
		Where("organization_id = ? AND is_active = true", orgID).Count(&n).Error
	return n, err
}

func (s GormStore) ActiveSubsidiaryCount(orgID uint) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Organization{}).
		Where("parent_organization_id = ? AND is_active = true", orgID).Count(&n).Error
	return n, err
}

func (s GormStore) InspectionCount(orgID uint) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Inspection{}).
		Where("organization_id = ?", orgID).Count(&n).Error
	return n, err
}

func (s GormStore) Deactivate(orgID uint) error {
	return s.DB.Model(&models.Organization{}).
		Where("id = ?", orgID).Update("is_active", false).Error
}
