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
	"fieldsafe/internal/services/ai"
	"fieldsafe/internal/services/compliance"
	"fieldsafe/internal/tenant"
)

type itemResponseReq struct {
	FieldType        *string            `json:"field_type"`
	Value            any                `json:"value"`
	Comment          string             `json:"comment"`
	ComplianceStatus *compliance.Status `json:"compliance_status"`
	EvidenceCount    *int               `json:"evidence_count"`
	RequestAnalysis  bool               `json:"request_analysis"`
}

// UpdateItemResponse persists a raw item response, derives its compliance
// status and, when the escalation policy fires, creates a corrective
// action. An optional analysis call to the external collaborator is
// timeout-bounded and degrades to "no analysis" on failure; it never
// blocks the write or the audit trail.
func UpdateItemResponse(db *gorm.DB, lg *zap.SugaredLogger, rec *audit.Recorder, aiClient *ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		inspID, err := parseUintParam(r, "id")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid inspection id")
			return
		}
		itemID, err := parseUintParam(r, "itemId")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid item id")
			return
		}
		var req itemResponseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
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
		var item models.InspectionItem
		if err := db.First(&item, "id = ? AND inspection_id = ?", itemID, inspID).Error; err != nil {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}

		fieldType := item.FieldType
		if req.FieldType != nil {
			fieldType = *req.FieldType
		}

		// Optional advisory analysis. Failure only costs the analysis.
		analysisNotes := item.AnalysisNotes
		degraded := false
		if req.RequestAnalysis && aiClient != nil {
			notes, err := aiClient.Analyze(r.Context(),
				"You review safety-inspection responses and flag risks.",
				fmt.Sprintf("Item: %s\nResponse: %v\nComment: %s", item.ItemDescription, req.Value, req.Comment))
			if err != nil {
				lg.Warnw("analysis collaborator unavailable", "item_id", item.ID, "error", err)
				degraded = true
			} else {
				analysisNotes = notes
			}
		}

		status := compliance.Classify(fieldType, req.Value, req.ComplianceStatus)

		oldResponse := string(item.Response)
		oldStatus := ""
		if item.ComplianceStatus != nil {
			oldStatus = *item.ComplianceStatus
		}

		raw, err := json.Marshal(map[string]any{"value": req.Value, "comment": req.Comment})
		if err != nil {
			respondError(w, http.StatusBadRequest, "unserializable response")
			return
		}
		item.FieldType = fieldType
		item.Response = models.JSONB(raw)
		item.AnalysisNotes = analysisNotes
		if req.EvidenceCount != nil {
			item.EvidenceCount = *req.EvidenceCount
		}
		if status != nil {
			s := string(*status)
			item.ComplianceStatus = &s
		} else {
			item.ComplianceStatus = nil
		}
		item.UpdatedAt = time.Now()
		if err := db.Save(&item).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		meta := audit.MetaFromRequest(r)
		subj := audit.ForInspection(insp.ID)
		if oldResponse != string(item.Response) {
			rec.FieldChanged(tc.UserID, subj, fmt.Sprintf("item_%d.response", item.ID), oldResponse, string(item.Response), meta)
		}
		newStatus := ""
		if item.ComplianceStatus != nil {
			newStatus = *item.ComplianceStatus
		}
		if oldStatus != newStatus {
			rec.FieldChanged(tc.UserID, subj, fmt.Sprintf("item_%d.compliance_status", item.ID), oldStatus, newStatus, meta)
		}

		esc := compliance.Escalate(status, fieldType, req.Value, item.EvidenceCount, analysisNotes)
		var action *models.ActionItem
		if esc.RequiresAction {
			due := time.Now().AddDate(0, 0, esc.DueInDays)
			linkID := item.ID
			a := models.ActionItem{
				InspectionID:     insp.ID,
				InspectionItemID: &linkID,
				What:             fmt.Sprintf("Corrigir: %s", item.ItemDescription),
				Why:              "Resposta classificada como não conforme",
				Priority:         esc.RiskTier,
				Status:           "pendente",
				DueDate:          &due,
				IsAIGenerated:    true,
			}
			if err := db.Create(&a).Error; err != nil {
				lg.Errorw("escalation action create failed", "inspection_id", insp.ID, "error", err)
			} else {
				action = &a
				rec.Created(tc.UserID, subj, a, meta, nil)
			}
		}

		resp := map[string]any{
			"item":       item,
			"escalation": esc,
		}
		if action != nil {
			resp["action_item"] = action
		}
		if degraded {
			resp["analysis"] = "unavailable"
		}
		respondJSON(w, resp)
	}
}
