package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldsafe/internal/auth"
	"fieldsafe/internal/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if !u.IsActive {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		jti := uuid.NewString()
		sess := models.Session{
			JTI:       jti,
			UserID:    u.ID,
			ExpiresAt: time.Now().Add(auth.TokenTTL()),
			CreatedAt: time.Now(),
		}
		if err := db.Create(&sess).Error; err != nil {
			lg.Errorw("session create failed", "user_id", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "session error")
			return
		}
		tok, err := auth.Sign(u.ID, u.Email, jti)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "token error")
			return
		}
		respondJSON(w, map[string]any{"token": tok})
	}
}

func Logout(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jti := auth.FromContext(r.Context()).JWTID
		now := time.Now()
		_ = db.Model(&models.Session{}).Where("jti = ?", jti).Update("revoked_at", &now).Error
		respondJSON(w, map[string]any{"ok": true})
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.Subject(r.Context())
		var u models.User
		if err := db.First(&u, "id = ?", sub).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondJSON(w, map[string]any{
			"id":                      u.ID,
			"email":                   u.Email,
			"name":                    u.Name,
			"role":                    u.Role,
			"organization_id":         u.OrganizationID,
			"managed_organization_id": u.ManagedOrganizationID,
			"is_active":               u.IsActive,
		})
	}
}

func ChangePassword(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current_password"`
			New     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.New == "" {
			respondError(w, http.StatusBadRequest, "new_password required")
			return
		}
		sub := auth.Subject(r.Context())
		var u models.User
		if err := db.First(&u, "id = ?", sub).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Current); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		hash, err := auth.HashPassword(req.New)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "hash error")
			return
		}
		if err := db.Model(&u).Update("password_hash", hash).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}
