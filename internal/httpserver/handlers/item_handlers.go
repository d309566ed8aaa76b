package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
	"fieldsafe/internal/services/compliance"
	"fieldsafe/internal/tenant"
)

func ListInspectionItems(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		inspID, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var insp models.Inspection
		if err := db.First(&insp, "id = ?", inspID).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !canTouchInspection(tc, insp) {
			respondError(w, http.StatusForbidden, "inspection outside tenant scope")
			return
		}
		var items []models.InspectionItem
		if err := db.Where("inspection_id = ?", insp.ID).Order("id").Find(&items).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, items)
	}
}

func CreateInspectionItem(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		inspID, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req struct {
			Category        string `json:"category"`
			ItemDescription string `json:"item_description"`
			FieldType       string `json:"field_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ItemDescription == "" {
			respondError(w, http.StatusBadRequest, "item_description required")
			return
		}
		if req.FieldType == "" {
			req.FieldType = compliance.FieldText
		}
		var insp models.Inspection
		if err := db.First(&insp, "id = ?", inspID).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if !canTouchInspection(tc, insp) {
			respondError(w, http.StatusForbidden, "inspection outside tenant scope")
			return
		}
		item := models.InspectionItem{
			InspectionID:    insp.ID,
			Category:        req.Category,
			ItemDescription: req.ItemDescription,
			FieldType:       req.FieldType,
		}
		if err := db.Create(&item).Error; err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Created(tc.UserID, audit.ForInspection(insp.ID), item, audit.MetaFromRequest(r), nil)
		respondJSON(w, item)
	}
}
