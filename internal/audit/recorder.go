package audit

import (
	"encoding/json"
	"net/http"

	"fieldsafe/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Meta is request provenance attached to every entry.
type Meta struct {
	IPAddress string
	UserAgent string
}

// MetaFromRequest extracts provenance. RemoteAddr is already rewritten by
// the RealIP middleware upstream.
func MetaFromRequest(r *http.Request) Meta {
	return Meta{IPAddress: r.RemoteAddr, UserAgent: r.Header.Get("User-Agent")}
}

// Subject scopes an entry to an inspection, an organization, or both.
type Subject struct {
	InspectionID   *uint
	OrganizationID *uint
}

func ForInspection(id uint) Subject   { return Subject{InspectionID: &id} }
func ForOrganization(id uint) Subject { return Subject{OrganizationID: &id} }

// Recorder appends immutable audit entries. Writes are best-effort and
// run after the primary mutation has committed: a failed audit write is
// logged and swallowed, it never rolls back or fails the operation.
type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Created records one entry for a new record. The snapshot is serialized
// into new_value. Extra metadata (e.g. a note that a client-supplied
// tenant id was discarded) rides in the metadata column.
func (rec *Recorder) Created(userID string, subj Subject, snapshot any, meta Meta, metadata map[string]any) {
	rec.append(models.AuditLog{
		InspectionID:   subj.InspectionID,
		OrganizationID: subj.OrganizationID,
		UserID:         &userID,
		Action:         models.AuditCreate,
		NewValue:       marshal(snapshot),
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Metadata:       marshalMeta(metadata),
	})
}

// FieldChanged records one entry per mutated field of an update.
func (rec *Recorder) FieldChanged(userID string, subj Subject, field, oldValue, newValue string, meta Meta) {
	f := field
	rec.append(models.AuditLog{
		InspectionID:   subj.InspectionID,
		OrganizationID: subj.OrganizationID,
		UserID:         &userID,
		Action:         models.AuditUpdate,
		FieldChanged:   &f,
		OldValue:       oldValue,
		NewValue:       newValue,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})
}

// Deleted records one entry with a snapshot of the record as it was
// before deletion.
func (rec *Recorder) Deleted(userID string, subj Subject, snapshot any, meta Meta) {
	rec.append(models.AuditLog{
		InspectionID:   subj.InspectionID,
		OrganizationID: subj.OrganizationID,
		UserID:         &userID,
		Action:         models.AuditDelete,
		OldValue:       marshal(snapshot),
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})
}

// Summary records a single entry for a bulk operation that does not keep
// field-level granularity, e.g. batch permission upserts.
func (rec *Recorder) Summary(userID string, subj Subject, action string, metadata map[string]any, meta Meta) {
	rec.append(models.AuditLog{
		InspectionID:   subj.InspectionID,
		OrganizationID: subj.OrganizationID,
		UserID:         &userID,
		Action:         action,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Metadata:       marshalMeta(metadata),
	})
}

func (rec *Recorder) append(entry models.AuditLog) {
	if err := rec.db.Create(&entry).Error; err != nil {
		rec.lg.Warnw("audit write failed",
			"action", entry.Action,
			"user_id", entry.UserID,
			"error", err)
	}
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func marshalMeta(m map[string]any) models.JSONB {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return models.JSONB(b)
}
