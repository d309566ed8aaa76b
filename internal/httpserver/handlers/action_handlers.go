package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
	"fieldsafe/internal/services/compliance"
	"fieldsafe/internal/tenant"
)

func ListActionItems(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
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
		var actions []models.ActionItem
		if err := db.Where("inspection_id = ?", insp.ID).Order("created_at desc").Find(&actions).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, actions)
	}
}

type actionItemReq struct {
	InspectionItemID *uint      `json:"inspection_item_id"`
	What             string     `json:"what"`
	Why              string     `json:"why"`
	Where            string     `json:"where"`
	When             *time.Time `json:"when"`
	Who              string     `json:"who"`
	How              string     `json:"how"`
	HowMuch          string     `json:"how_much"`
	Priority         string     `json:"priority"`
}

// CreateActionItem records a manual corrective action. The due date is
// always derived from the risk tier, never taken from the request, so a
// caller cannot spoof its own deadline.
func CreateActionItem(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		inspID, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req actionItemReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.What == "" {
			respondError(w, http.StatusBadRequest, "what required")
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
		priority := req.Priority
		switch priority {
		case compliance.TierBaixo, compliance.TierMedia, compliance.TierAlta, compliance.TierCritica:
		default:
			priority = compliance.TierMedia
		}
		due := time.Now().AddDate(0, 0, compliance.DueDays(priority))
		a := models.ActionItem{
			InspectionID:     insp.ID,
			InspectionItemID: req.InspectionItemID,
			What:             req.What,
			Why:              req.Why,
			Where:            req.Where,
			When:             req.When,
			Who:              req.Who,
			How:              req.How,
			HowMuch:          req.HowMuch,
			Priority:         priority,
			Status:           "pendente",
			DueDate:          &due,
		}
		if err := db.Create(&a).Error; err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Created(tc.UserID, audit.ForInspection(insp.ID), a, audit.MetaFromRequest(r), nil)
		respondJSON(w, a)
	}
}
