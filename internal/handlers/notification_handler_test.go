package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

func (e *testEnv) seedNotification(t *testing.T, recipient *models.User, title string) *models.Notification {
	t.Helper()

	n := models.Notification{
		RecipientID: recipient.ID,
		Type:        models.NotifAdminMessage,
		Title:       title,
		Message:     "hello",
	}
	require.NoError(t, e.DB.Create(&n).Error)
	return &n
}

func TestListNotificationsWithUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)
	bob, _ := env.createUser(t, "bob", models.RoleCreator)

	env.seedNotification(t, alice, "one")
	env.seedNotification(t, alice, "two")
	env.seedNotification(t, bob, "not yours")

	resp := env.request(t, http.MethodGet, "/api/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["notifications"].([]interface{}), 2)
	assert.Equal(t, float64(2), data["unread_count"])
}

func TestExpiredNotificationsHidden(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)

	n := env.seedNotification(t, alice, "old")
	require.NoError(t, env.DB.Model(n).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	resp := env.request(t, http.MethodGet, "/api/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["notifications"].([]interface{}), 0)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)
	_, bobToken := env.createUser(t, "bob", models.RoleCreator)

	n := env.seedNotification(t, alice, "read me")

	resp := env.request(t, http.MethodPatch, "/api/notifications/"+n.ID.String()+"/read", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, http.MethodPatch, "/api/notifications/"+n.ID.String()+"/read", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Notification
	require.NoError(t, env.DB.First(&stored, "id = ?", n.ID).Error)
	assert.True(t, stored.IsRead)
	assert.NotNil(t, stored.ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleCreator)

	env.seedNotification(t, alice, "one")
	env.seedNotification(t, alice, "two")

	resp := env.request(t, http.MethodPatch, "/api/notifications/read-all", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var unread int64
	env.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", alice.ID, false).
		Count(&unread)
	assert.Equal(t, int64(0), unread)
}
