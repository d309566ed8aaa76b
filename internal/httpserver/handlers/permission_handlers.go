package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
	"fieldsafe/internal/tenant"
)

func ListPermissions(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var perms []models.RolePermission
		if err := db.Order("role, permission_type").Find(&perms).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, perms)
	}
}

type permissionTriple struct {
	Role           models.Role `json:"role"`
	PermissionType string      `json:"permission_type"`
	IsAllowed      bool        `json:"is_allowed"`
}

// UpdatePermissions upserts a batch of (role, permission_type, is_allowed)
// triples idempotently. The batch path keeps one summary audit entry with
// the changed-row count rather than field-level granularity.
func UpdatePermissions(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		var req struct {
			Permissions []permissionTriple `json:"permissions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		changed := 0
		for _, p := range req.Permissions {
			if !p.Role.Valid() || p.PermissionType == "" {
				respondError(w, http.StatusBadRequest, "invalid role or permission_type")
				return
			}
			var rp models.RolePermission
			err := db.First(&rp, "role = ? AND permission_type = ?", p.Role, p.PermissionType).Error
			switch {
			case err == nil:
				if rp.IsAllowed != p.IsAllowed {
					rp.IsAllowed = p.IsAllowed
					rp.UpdatedAt = time.Now()
					if err := db.Save(&rp).Error; err != nil {
						respondError(w, http.StatusInternalServerError, err.Error())
						return
					}
					changed++
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				rp = models.RolePermission{Role: p.Role, PermissionType: p.PermissionType, IsAllowed: p.IsAllowed}
				if err := db.Create(&rp).Error; err != nil {
					respondError(w, http.StatusInternalServerError, err.Error())
					return
				}
				changed++
			default:
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		rec.Summary(tc.UserID, audit.Subject{}, models.AuditUpdate,
			map[string]any{"permission_rows_changed": changed}, audit.MetaFromRequest(r))
		respondJSON(w, map[string]any{"changed": changed})
	}
}
