package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldsafe/internal/audit"
	"fieldsafe/internal/models"
)

func itemRows(id, inspID uint) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "inspection_id", "category", "item_description", "field_type",
		"response", "compliance_status", "analysis_notes", "evidence_count",
		"created_at", "updated_at",
	}).AddRow(id, inspID, "EPI", "Capacete em bom estado", "rating",
		[]byte("{}"), nil, "", 0, now, now)
}

// A rating of 1 classifies as nao_conforme and escalates to a critica
// action item with a 7-day deadline, without any AI collaborator.
func TestUpdateItemResponseRatingOneEscalatesCritica(t *testing.T) {
	db, mock := newMockDB(t)
	lg := zap.NewNop().Sugar()
	rec := audit.NewRecorder(db, lg)

	mock.ExpectQuery(`SELECT (.+) FROM "inspections"`).
		WillReturnRows(inspectionRows(7, 5, "user-a"))
	mock.ExpectQuery(`SELECT (.+) FROM "inspection_items"`).
		WillReturnRows(itemRows(3, 7))
	// item save
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "inspection_items"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// one audit row per changed field: response, compliance_status
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()
	}
	// escalated corrective action plus its audit entry
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "action_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(12)))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]any{"value": 1})
	req := httptest.NewRequest(http.MethodPatch, "/v1/inspections/7/responses/3", bytes.NewReader(body))
	req = withURLParam(req, "id", "7")
	req = withURLParam(req, "itemId", "3")
	req = withTenant(req, models.User{ID: "user-a", Role: models.RoleInspector, OrganizationID: uintPtr(5)}, staticDirectory{})

	rr := httptest.NewRecorder()
	UpdateItemResponse(db, lg, rec, nil)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Item struct {
			ComplianceStatus *string `json:"compliance_status"`
		} `json:"item"`
		Escalation struct {
			RequiresAction bool   `json:"requires_action"`
			RiskTier       string `json:"risk_tier"`
			DueInDays      int    `json:"due_in_days"`
		} `json:"escalation"`
		ActionItem *models.ActionItem `json:"action_item"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Item.ComplianceStatus)
	assert.Equal(t, "nao_conforme", *resp.Item.ComplianceStatus)
	assert.True(t, resp.Escalation.RequiresAction)
	assert.Equal(t, "critica", resp.Escalation.RiskTier)
	assert.Equal(t, 7, resp.Escalation.DueInDays)
	require.NotNil(t, resp.ActionItem)
	assert.True(t, resp.ActionItem.IsAIGenerated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A compliant boolean answer produces no corrective action.
func TestUpdateItemResponseCompliantBooleanNoEscalation(t *testing.T) {
	db, mock := newMockDB(t)
	lg := zap.NewNop().Sugar()
	rec := audit.NewRecorder(db, lg)

	now := time.Now()
	boolItem := sqlmock.NewRows([]string{
		"id", "inspection_id", "category", "item_description", "field_type",
		"response", "compliance_status", "analysis_notes", "evidence_count",
		"created_at", "updated_at",
	}).AddRow(uint(4), uint(7), "EPI", "Luvas disponíveis", "boolean",
		[]byte("{}"), nil, "", 0, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM "inspections"`).
		WillReturnRows(inspectionRows(7, 5, "user-a"))
	mock.ExpectQuery(`SELECT (.+) FROM "inspection_items"`).
		WillReturnRows(boolItem)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "inspection_items"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()
	}

	body, _ := json.Marshal(map[string]any{"value": true})
	req := httptest.NewRequest(http.MethodPatch, "/v1/inspections/7/responses/4", bytes.NewReader(body))
	req = withURLParam(req, "id", "7")
	req = withURLParam(req, "itemId", "4")
	req = withTenant(req, models.User{ID: "user-a", Role: models.RoleInspector, OrganizationID: uintPtr(5)}, staticDirectory{})

	rr := httptest.NewRecorder()
	UpdateItemResponse(db, lg, rec, nil)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Item struct {
			ComplianceStatus *string `json:"compliance_status"`
		} `json:"item"`
		Escalation struct {
			RequiresAction bool `json:"requires_action"`
		} `json:"escalation"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Item.ComplianceStatus)
	assert.Equal(t, "conforme", *resp.Item.ComplianceStatus)
	assert.False(t, resp.Escalation.RequiresAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}
