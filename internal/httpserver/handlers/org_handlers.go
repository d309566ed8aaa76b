package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
	"fieldsafe/internal/services/lifecycle"
	"fieldsafe/internal/tenant"
)

// ListOrganizations returns the organizations inside the caller's scope,
// plus a per-organization active-user count map.
func ListOrganizations(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		if tc.Empty() {
			respondError(w, http.StatusForbidden, "no accessible organizations")
			return
		}
		var orgs []models.Organization
		q := db.Order("created_at desc")
		ids, universal := tc.AccessibleOrganizationIDs()
		if !universal {
			q = q.Where("id IN ?", ids)
		}
		if err := q.Find(&orgs).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		type orgCount struct {
			OrganizationID uint
			N              int64
		}
		var counts []orgCount
		cq := db.Model(&models.User{}).
			Select("organization_id, COUNT(*) as n").
			Where("is_active = true AND organization_id IS NOT NULL").
			Group("organization_id")
		if !universal {
			cq = cq.Where("organization_id IN ?", ids)
		}
		_ = cq.Scan(&counts).Error
		userCounts := make(map[string]int64, len(counts))
		for _, c := range counts {
			userCounts[strconv.FormatUint(uint64(c.OrganizationID), 10)] = c.N
		}
		respondJSON(w, map[string]any{"organizations": orgs, "userCounts": userCounts})
	}
}

type orgPayload struct {
	Name                 *string `json:"name"`
	Type                 *string `json:"type"`
	ParentOrganizationID *uint   `json:"parent_organization_id"`
	SubscriptionPlan     *string `json:"subscription_plan"`
	SubscriptionStatus   *string `json:"subscription_status"`
}

// CreateOrganization creates an organization. For org admins the parent
// is always the managed organization from the tenant context; a
// conflicting parent in the body is discarded and noted on the audit
// entry, never surfaced to the caller.
func CreateOrganization(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		var req orgPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			respondError(w, http.StatusBadRequest, "name required")
			return
		}
		org := models.Organization{
			Name:     strings.TrimSpace(*req.Name),
			Type:     models.OrgTypeCompany,
			IsActive: true,
		}
		if req.Type != nil {
			org.Type = models.OrganizationType(*req.Type)
		}
		if req.SubscriptionPlan != nil {
			org.SubscriptionPlan = *req.SubscriptionPlan
		}
		if req.SubscriptionStatus != nil {
			org.SubscriptionStatus = *req.SubscriptionStatus
		}

		var note map[string]any
		switch {
		case tc.IsSystemAdmin:
			org.ParentOrganizationID = req.ParentOrganizationID
		case tc.ManagedOrganizationID != nil:
			managed := *tc.ManagedOrganizationID
			org.ParentOrganizationID = &managed
			if req.ParentOrganizationID != nil && *req.ParentOrganizationID != managed {
				note = map[string]any{
					"security_note": fmt.Sprintf("client-supplied parent_organization_id %d discarded, tenant scope enforced %d",
						*req.ParentOrganizationID, managed),
				}
			}
		default:
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		if org.ParentOrganizationID != nil {
			org.OrganizationLevel = "subsidiary"
		} else {
			org.OrganizationLevel = "company"
		}

		if err := db.Create(&org).Error; err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Created(tc.UserID, audit.ForOrganization(org.ID), org, audit.MetaFromRequest(r), note)
		respondJSON(w, org)
	}
}

// orgMutableFields is the allow-list diffed on update. The parent pointer
// is only movable by system admins.
func UpdateOrganization(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req orgPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var org models.Organization
		if err := db.First(&org, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !tc.IsSystemAdmin && !tc.CanAccess(org.ID) {
			respondError(w, http.StatusForbidden, "organization outside tenant scope")
			return
		}

		type change struct{ field, oldV, newV string }
		var changes []change
		if req.Name != nil && *req.Name != org.Name {
			changes = append(changes, change{"name", org.Name, *req.Name})
			org.Name = *req.Name
		}
		if req.Type != nil && models.OrganizationType(*req.Type) != org.Type {
			changes = append(changes, change{"type", string(org.Type), *req.Type})
			org.Type = models.OrganizationType(*req.Type)
		}
		if req.SubscriptionPlan != nil && *req.SubscriptionPlan != org.SubscriptionPlan {
			changes = append(changes, change{"subscription_plan", org.SubscriptionPlan, *req.SubscriptionPlan})
			org.SubscriptionPlan = *req.SubscriptionPlan
		}
		if req.SubscriptionStatus != nil && *req.SubscriptionStatus != org.SubscriptionStatus {
			changes = append(changes, change{"subscription_status", org.SubscriptionStatus, *req.SubscriptionStatus})
			org.SubscriptionStatus = *req.SubscriptionStatus
		}
		if req.ParentOrganizationID != nil {
			if !tc.IsSystemAdmin {
				respondError(w, http.StatusForbidden, "parent reassignment requires system admin")
				return
			}
			if org.ParentOrganizationID == nil || *org.ParentOrganizationID != *req.ParentOrganizationID {
				oldV := ""
				if org.ParentOrganizationID != nil {
					oldV = strconv.FormatUint(uint64(*org.ParentOrganizationID), 10)
				}
				changes = append(changes, change{"parent_organization_id", oldV,
					strconv.FormatUint(uint64(*req.ParentOrganizationID), 10)})
				org.ParentOrganizationID = req.ParentOrganizationID
				org.OrganizationLevel = "subsidiary"
			}
		}
		if len(changes) == 0 {
			respondJSON(w, map[string]any{"updated": false})
			return
		}
		org.UpdatedAt = time.Now()
		if err := db.Save(&org).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		meta := audit.MetaFromRequest(r)
		for _, c := range changes {
			rec.FieldChanged(tc.UserID, audit.ForOrganization(org.ID), c.field, c.oldV, c.newV, meta)
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}

// DeleteOrganization soft-deletes after the referential guards pass. A
// blocked deletion returns 400 with the blocking category and count.
func DeleteOrganization(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var org models.Organization
		if err := db.First(&org, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !tc.IsSystemAdmin && !tc.CanAccess(org.ID) {
			respondError(w, http.StatusForbidden, "organization outside tenant scope")
			return
		}
		if err := lifecycle.SoftDelete(lifecycle.GormStore{DB: db}, org.ID); err != nil {
			var block *lifecycle.ReferentialBlock
			if errors.As(err, &block) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				respondJSONBody(w, map[string]any{
					"error":  block.Error(),
					"reason": block.Reason,
					"count":  block.Count,
				})
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rec.Deleted(tc.UserID, audit.ForOrganization(org.ID), org, audit.MetaFromRequest(r))
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func respondJSONBody(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseUint(raw, 10, 32)
	return uint(n), err
}
