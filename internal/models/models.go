package models

import "time"

// Role is the closed set of user roles. Authorization decisions compare
// against these constants only, never against free strings from a request.
type Role string

const (
	RoleSystemAdmin  Role = "system_admin"
	RoleOrgAdmin     Role = "org_admin"
	RoleManager      Role = "manager"
	RoleInspector    Role = "inspector"
	RoleClientViewer Role = "client_viewer"
	RolePending      Role = "pending"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleOrgAdmin, RoleManager, RoleInspector, RoleClientViewer, RolePending:
		return true
	}
	return false
}

type OrganizationType string

const (
	OrgTypeCompany     OrganizationType = "company"
	OrgTypeConsultancy OrganizationType = "consultancy"
	OrgTypeClient      OrganizationType = "client"
)

type User struct {
	ID                    string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email                 string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash          string    `gorm:"not null" json:"-"`
	Name                  string    `json:"name"`
	Role                  Role      `gorm:"not null;default:pending" json:"role"`
	OrganizationID        *uint     `gorm:"index" json:"organization_id,omitempty"`
	ManagedOrganizationID *uint     `gorm:"index" json:"managed_organization_id,omitempty"`
	ApprovalStatus        string    `gorm:"not null;default:pending" json:"approval_status"`
	IsActive              bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type Organization struct {
	ID                   uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                 string           `gorm:"not null" json:"name"`
	Type                 OrganizationType `gorm:"not null;default:company" json:"type"`
	ParentOrganizationID *uint            `gorm:"index" json:"parent_organization_id,omitempty"`
	OrganizationLevel    string           `gorm:"not null;default:company" json:"organization_level"`
	SubscriptionPlan     string           `json:"subscription_plan"`
	SubscriptionStatus   string           `json:"subscription_status"`
	IsActive             bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    string     `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Inspection statuses.
const (
	InspectionPendente    = "pendente"
	InspectionEmAndamento = "em_andamento"
	InspectionConcluida   = "concluida"
	InspectionCancelada   = "cancelada"
)

// Inspection is an organization-scoped safety inspection. OrganizationID is
// assigned once at creation from the caller's tenant context and is never
// writable afterwards.
type Inspection struct {
	ID                   uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID       uint       `gorm:"index;not null" json:"organization_id"`
	CreatedBy            string     `gorm:"type:uuid;index;not null" json:"created_by"`
	Title                string     `gorm:"not null" json:"title"`
	Location             string     `json:"location"`
	Status               string     `gorm:"not null;default:pendente" json:"status"`
	Priority             string     `json:"priority"`
	ScheduledDate        *time.Time `json:"scheduled_date,omitempty"`
	InspectorSignature   string     `json:"inspector_signature"`
	ResponsibleSignature string     `json:"responsible_signature"`
	DeviceFingerprint    string     `json:"device_fingerprint"`
	StartGeolocation     string     `json:"start_geolocation"`
	EndGeolocation       string     `json:"end_geolocation"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type InspectionItem struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID     uint      `gorm:"index;not null" json:"inspection_id"`
	Category         string    `json:"category"`
	ItemDescription  string    `gorm:"not null" json:"item_description"`
	FieldType        string    `gorm:"not null;default:text" json:"field_type"`
	Response         JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"response"`
	ComplianceStatus *string   `gorm:"index" json:"compliance_status,omitempty"`
	AnalysisNotes    string    `json:"analysis_notes"`
	EvidenceCount    int       `gorm:"not null;default:0" json:"evidence_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ActionItem is a corrective action in 5W2H form.
type ActionItem struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID     uint       `gorm:"index;not null" json:"inspection_id"`
	InspectionItemID *uint      `gorm:"index" json:"inspection_item_id,omitempty"`
	What             string     `gorm:"not null" json:"what"`
	Why              string     `json:"why"`
	Where            string     `json:"where"`
	When             *time.Time `json:"when,omitempty"`
	Who              string     `json:"who"`
	How              string     `json:"how"`
	HowMuch          string     `json:"how_much"`
	Priority         string     `gorm:"not null;default:media" json:"priority"`
	Status           string     `gorm:"not null;default:pendente" json:"status"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	IsAIGenerated    bool       `gorm:"not null;default:false" json:"is_ai_generated"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Audit actions.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditLog rows are append-only: inserted by the audit recorder, never
// updated or deleted.
type AuditLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID   *uint     `gorm:"index" json:"inspection_id,omitempty"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	UserID         *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action         string    `gorm:"not null" json:"action"`
	FieldChanged   *string   `json:"field_changed,omitempty"`
	OldValue       string    `json:"old_value"`
	NewValue       string    `json:"new_value"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	Metadata       JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
}

// RolePermission maps (role, permission_type) to an allow decision.
// A nil OrganizationID means the row is a global default.
type RolePermission struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Role           Role      `gorm:"uniqueIndex:idx_role_perm;not null" json:"role"`
	PermissionType string    `gorm:"uniqueIndex:idx_role_perm;not null" json:"permission_type"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	IsAllowed      bool      `gorm:"not null;default:false" json:"is_allowed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
