package audit

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestMetaFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/inspections", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	r.Header.Set("User-Agent", "fieldsafe-mobile/2.1")

	m := MetaFromRequest(r)
	assert.Equal(t, "203.0.113.7:1234", m.IPAddress)
	assert.Equal(t, "fieldsafe-mobile/2.1", m.UserAgent)
}

// A failed audit write is logged and swallowed: it must never surface to
// the caller or undo the primary mutation.
func TestRecorderSwallowsWriteFailures(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewRecorder(db, zap.NewNop().Sugar())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnError(errors.New("audit table unavailable"))
	mock.ExpectRollback()

	assert.NotPanics(t, func() {
		rec.Created("u1", ForInspection(7), map[string]any{"id": 7}, Meta{}, nil)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorderFieldChangedWritesOneRowPerField(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewRecorder(db, zap.NewNop().Sugar())

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()
	}

	subj := ForInspection(7)
	meta := Meta{IPAddress: "10.0.0.1"}
	rec.FieldChanged("u1", subj, "title", "a", "b", meta)
	rec.FieldChanged("u1", subj, "status", "pendente", "concluida", meta)
	rec.FieldChanged("u1", subj, "priority", "", "alta", meta)

	assert.NoError(t, mock.ExpectationsWereMet())
}
