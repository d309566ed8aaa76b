package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/models"
	"fieldsafe/internal/tenant"
)

// MyLogs returns recent audit entries. Regular users see their own;
// system admins can pass ?all=1 for everyone's, and ?inspection_id=N
// narrows to one inspection.
func MyLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := tenant.FromContext(r.Context())
		q := db.Order("created_at desc").Limit(200)
		if raw := r.URL.Query().Get("inspection_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid inspection_id")
				return
			}
			q = q.Where("inspection_id = ?", uint(id))
		}
		if !(tc.IsSystemAdmin && r.URL.Query().Get("all") == "1") {
			q = q.Where("user_id = ?", tc.UserID)
		}
		var logs []models.AuditLog
		_ = q.Find(&logs).Error
		respondJSON(w, logs)
	}
}
