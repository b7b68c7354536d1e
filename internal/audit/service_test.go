package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/bookkinder/internal/database/audit"
	"github.com/mrlokans/bookkinder/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "login", saved.Action)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("success", func(t *testing.T) {
		svc.LogAuth(1, "login", "192.168.1.1", "curl/8.0", nil)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ? AND user_id = ?", "login", 1).First(&event).Error)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.168.1.1", event.IPAddress)
	})

	t.Run("failure", func(t *testing.T) {
		svc.LogAuth(0, "login_failed", "192.168.1.1", "", errors.New("invalid credentials"))
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "login_failed").First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Equal(t, "invalid credentials", event.ErrorMsg)
	})
}

func TestService_LogDelete(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogDelete(1, "book", 42, "Rayuela")
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "book_delete").First(&event).Error)
	assert.Equal(t, "Deleted book: Rayuela", event.Description)
	require.NotNil(t, event.EntityID)
	assert.Equal(t, uint(42), *event.EntityID)
}

func TestService_LogTokenPrune(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogTokenPrune(3, nil)
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventTokens).First(&event).Error)
	assert.Contains(t, event.Description, "(3)")
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-40 * 24 * time.Hour)}))
	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "recent"}))

	deleted, err := svc.DeleteOldEvents(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
