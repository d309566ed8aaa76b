package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
	"fieldsafe/internal/tenant"
)

func ListInspections(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		if tc.Empty() {
			respondError(w, http.StatusForbidden, "no accessible organizations")
			return
		}
		var inspections []models.Inspection
		q := db.Order("created_at desc")
		if ids, universal := tc.AccessibleOrganizationIDs(); !universal {
			q = q.Where("organization_id IN ? OR created_by = ?", ids, tc.UserID)
		}
		if err := q.Find(&inspections).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, inspections)
	}
}

type inspectionPayload struct {
	// OrganizationID is accepted in the body only so a conflicting value
	// can be detected; it is never authoritative.
	OrganizationID       *uint      `json:"organization_id"`
	Title                *string    `json:"title"`
	Location             *string    `json:"location"`
	Status               *string    `json:"status"`
	Priority             *string    `json:"priority"`
	ScheduledDate        *time.Time `json:"scheduled_date"`
	InspectorSignature   *string    `json:"inspector_signature"`
	ResponsibleSignature *string    `json:"responsible_signature"`
	DeviceFingerprint    *string    `json:"device_fingerprint"`
	StartGeolocation     *string    `json:"start_geolocation"`
	EndGeolocation       *string    `json:"end_geolocation"`
}

// CreateInspection assigns the organization exclusively from the tenant
// context. A conflicting body value is silently discarded and the
// discrepancy recorded on the audit entry; surfacing it would leak
// internal scoping to the caller.
func CreateInspection(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		var req inspectionPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title == nil || *req.Title == "" {
			respondError(w, http.StatusBadRequest, "title required")
			return
		}

		var orgID uint
		switch {
		case tc.IsSystemAdmin:
			// System admins hold the universal set; an explicit body org
			// is their only way to pick a tenant.
			if req.OrganizationID == nil {
				respondError(w, http.StatusBadRequest, "organization_id required")
				return
			}
			orgID = *req.OrganizationID
		default:
			effective, ok := tc.EffectiveOrganizationID()
			if !ok {
				respondError(w, http.StatusForbidden, "no organization scope")
				return
			}
			orgID = effective
		}

		var note map[string]any
		if !tc.IsSystemAdmin && req.OrganizationID != nil && *req.OrganizationID != orgID {
			note = map[string]any{
				"security_note": fmt.Sprintf("client-supplied organization_id %d discarded, tenant scope enforced %d",
					*req.OrganizationID, orgID),
			}
		}

		insp := models.Inspection{
			OrganizationID: orgID,
			CreatedBy:      tc.UserID,
			Title:          *req.Title,
			Status:         models.InspectionPendente,
		}
		if req.Location != nil {
			insp.Location = *req.Location
		}
		if req.Priority != nil {
			insp.Priority = *req.Priority
		}
		if req.ScheduledDate != nil {
			insp.ScheduledDate = req.ScheduledDate
		}
		if req.DeviceFingerprint != nil {
			insp.DeviceFingerprint = *req.DeviceFingerprint
		}
		if req.StartGeolocation != nil {
			insp.StartGeolocation = *req.StartGeolocation
		}
		if err := db.Create(&insp).Error; err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Created(tc.UserID, audit.ForInspection(insp.ID), insp, audit.MetaFromRequest(r), note)
		respondJSON(w, insp)
	}
}

// canTouchInspection applies the write rule: system admins bypass, others
// need the target organization in scope or must be the original creator.
func canTouchInspection(tc tenant.Context, insp models.Inspection) bool {
	if tc.IsSystemAdmin {
		return true
	}
	return tc.CanAccess(insp.OrganizationID) || insp.CreatedBy == tc.UserID
}

// UpdateInspection diffs an explicit allow-list of mutable fields and
// emits one audit entry per changed field. Any attempt to supply a
// different organization_id is rejected outright: organization assignment
// is immutable after creation, for every caller.
func UpdateInspection(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req inspectionPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var insp models.Inspection
		if err := db.First(&insp, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !canTouchInspection(tc, insp) {
			respondError(w, http.StatusForbidden, "inspection outside tenant scope")
			return
		}
		if req.OrganizationID != nil && *req.OrganizationID != insp.OrganizationID {
			respondError(w, http.StatusForbidden, "organization_id is immutable")
			return
		}

		type change struct{ field, oldV, newV string }
		var changes []change
		set := func(field string, dst *string, src *string) {
			if src != nil && *src != *dst {
				changes = append(changes, change{field, *dst, *src})
				*dst = *src
			}
		}
		set("title", &insp.Title, req.Title)
		set("location", &insp.Location, req.Location)
		set("status", &insp.Status, req.Status)
		set("priority", &insp.Priority, req.Priority)
		set("inspector_signature", &insp.InspectorSignature, req.InspectorSignature)
		set("responsible_signature", &insp.ResponsibleSignature, req.ResponsibleSignature)
		set("end_geolocation", &insp.EndGeolocation, req.EndGeolocation)
		if req.ScheduledDate != nil && (insp.ScheduledDate == nil || !req.ScheduledDate.Equal(*insp.ScheduledDate)) {
			oldV := ""
			if insp.ScheduledDate != nil {
				oldV = insp.ScheduledDate.Format(time.RFC3339)
			}
			changes = append(changes, change{"scheduled_date", oldV, req.ScheduledDate.Format(time.RFC3339)})
			insp.ScheduledDate = req.ScheduledDate
		}
		if len(changes) == 0 {
			respondJSON(w, map[string]any{"updated": false})
			return
		}
		insp.UpdatedAt = time.Now()
		if err := db.Save(&insp).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		meta := audit.MetaFromRequest(r)
		for _, c := range changes {
			rec.FieldChanged(tc.UserID, audit.ForInspection(insp.ID), c.field, c.oldV, c.newV, meta)
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}

func DeleteInspection(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		id, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var insp models.Inspection
		if err := db.First(&insp, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !canTouchInspection(tc, insp) {
			respondError(w, http.StatusForbidden, "inspection outside tenant scope")
			return
		}
		if err := db.Delete(&models.Inspection{}, "id = ?", insp.ID).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rec.Deleted(tc.UserID, audit.ForInspection(insp.ID), insp, audit.MetaFromRequest(r))
		respondJSON(w, map[string]any{"deleted": true})
	}
}
