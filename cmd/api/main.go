package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"fieldsafe/internal/auth"
	"fieldsafe/internal/httpserver"
	"fieldsafe/internal/logger"
	"fieldsafe/internal/models"
	"fieldsafe/internal/obs"
	"fieldsafe/internal/services/ai"
	"fieldsafe/internal/tenant"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Session{},
		&models.Inspection{},
		&models.InspectionItem{},
		&models.ActionItem{},
		&models.AuditLog{},
		&models.RolePermission{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedSystemAdmin(db, lg)
	seedDefaultPermissions(db)

	router := httpserver.NewRouter(db, lg, ai.NewClientFromEnv())
	obs.Init()

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func seedSystemAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	email := strings.ToLower(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@fieldsafe.local"
	}
	var count int64
	db.Model(&models.User{}).Where("LOWER(email)=?", email).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hash, _ := auth.HashPassword(password)
	u := models.User{
		Email:          email,
		PasswordHash:   hash,
		Name:           "System Administrator",
		Role:           models.RoleSystemAdmin,
		ApprovalStatus: "approved",
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Errorw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded system admin", "email", email)
}

func seedDefaultPermissions(db *gorm.DB) {
	for _, p := range tenant.DefaultPermissions() {
		var count int64
		db.Model(&models.RolePermission{}).
			Where("role = ? AND permission_type = ?", p.Role, p.PermissionType).Count(&count)
		if count == 0 {
			_ = db.Create(&p).Error
		}
	}
}
