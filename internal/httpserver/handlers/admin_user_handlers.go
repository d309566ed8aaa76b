package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/auth"
	"fieldsafe/internal/models"
	"fieldsafe/internal/tenant"
)

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.User
		if err := db.Order("created_at desc").Find(&users).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, users)
	}
}

func CreateUser(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		var req struct {
			Email                 string      `json:"email"`
			Password              string      `json:"password"`
			Name                  string      `json:"name"`
			Role                  models.Role `json:"role"`
			OrganizationID        *uint       `json:"organization_id"`
			ManagedOrganizationID *uint       `json:"managed_organization_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "email/password required")
			return
		}
		if req.Role == "" {
			req.Role = models.RolePending
		}
		if !req.Role.Valid() {
			respondError(w, http.StatusBadRequest, "unknown role")
			return
		}
		if req.Role != models.RoleOrgAdmin {
			req.ManagedOrganizationID = nil
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "hash error")
			return
		}
		u := models.User{
			Email:                 req.Email,
			PasswordHash:          hash,
			Name:                  req.Name,
			Role:                  req.Role,
			OrganizationID:        req.OrganizationID,
			ManagedOrganizationID: req.ManagedOrganizationID,
			ApprovalStatus:        "approved",
			IsActive:              true,
		}
		if err := db.Create(&u).Error; err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		subj := audit.Subject{OrganizationID: u.OrganizationID}
		rec.Created(tc.UserID, subj, map[string]any{"id": u.ID, "email": u.Email, "role": u.Role},
			audit.MetaFromRequest(r), nil)
		respondJSON(w, map[string]any{"id": u.ID})
	}
}

func UpdateUser(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id := chi.URLParam(r, "id")
		var req struct {
			Name                  *string      `json:"name"`
			Role                  *models.Role `json:"role"`
			OrganizationID        *uint        `json:"organization_id"`
			ManagedOrganizationID *uint        `json:"managed_organization_id"`
			ApprovalStatus        *string      `json:"approval_status"`
			IsActive              *bool        `json:"is_active"`
			Password              *string      `json:"password,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}

		type change struct{ field, oldV, newV string }
		var changes []change
		if req.Name != nil && *req.Name != u.Name {
			changes = append(changes, change{"name", u.Name, *req.Name})
			u.Name = *req.Name
		}
		if req.Role != nil && *req.Role != u.Role {
			if !req.Role.Valid() {
				respondError(w, http.StatusBadRequest, "unknown role")
				return
			}
			changes = append(changes, change{"role", string(u.Role), string(*req.Role)})
			u.Role = *req.Role
			if u.Role != models.RoleOrgAdmin {
				u.ManagedOrganizationID = nil
			}
		}
		if req.OrganizationID != nil {
			changes = append(changes, change{"organization_id", formatOrgPtr(u.OrganizationID), formatOrgPtr(req.OrganizationID)})
			u.OrganizationID = req.OrganizationID
		}
		if req.ManagedOrganizationID != nil && u.Role == models.RoleOrgAdmin {
			changes = append(changes, change{"managed_organization_id", formatOrgPtr(u.ManagedOrganizationID), formatOrgPtr(req.ManagedOrganizationID)})
			u.ManagedOrganizationID = req.ManagedOrganizationID
		}
		if req.ApprovalStatus != nil && *req.ApprovalStatus != u.ApprovalStatus {
			changes = append(changes, change{"approval_status", u.ApprovalStatus, *req.ApprovalStatus})
			u.ApprovalStatus = *req.ApprovalStatus
		}
		if req.IsActive != nil && *req.IsActive != u.IsActive {
			changes = append(changes, change{"is_active", boolStr(u.IsActive), boolStr(*req.IsActive)})
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "hash error")
				return
			}
			u.PasswordHash = hash
		}
		u.UpdatedAt = time.Now()
		if err := db.Save(&u).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		meta := audit.MetaFromRequest(r)
		subj := audit.Subject{OrganizationID: u.OrganizationID}
		for _, c := range changes {
			rec.FieldChanged(tc.UserID, subj, "user."+c.field, c.oldV, c.newV, meta)
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}

// DeleteUser deactivates. User rows are never hard-deleted: audit history
// references them.
func DeleteUser(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id := chi.URLParam(r, "id")
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if err := db.Model(&u).Update("is_active", false).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rec.Deleted(tc.UserID, audit.Subject{OrganizationID: u.OrganizationID},
			map[string]any{"id": u.ID, "email": u.Email, "role": u.Role}, audit.MetaFromRequest(r))
		respondJSON(w, map[string]any{"deactivated": true})
	}
}

func formatOrgPtr(p *uint) string {
	if p == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*p), 10)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
