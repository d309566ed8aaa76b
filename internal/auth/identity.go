package auth

import (
	"errors"

	"fieldsafe/internal/models"

	"gorm.io/gorm"
)

var ErrUnknownIdentity = errors.New("identity not found or inactive")

// ResolveUser maps a verified token subject to the stored user record.
// Role and organization attributes always come from the database, never
// from claims embedded in the credential.
func ResolveUser(db *gorm.DB, subject string) (models.User, error) {
	var u models.User
	if subject == "" {
		return u, ErrUnknownIdentity
	}
	if err := db.First(&u, "id = ?", subject).Error; err != nil {
		return u, ErrUnknownIdentity
	}
	if !u.IsActive {
		return u, ErrUnknownIdentity
	}
	return u, nil
}
