package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List returns the caller's unexpired notifications, newest first, plus the
// unread count.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	now := time.Now()

	q := h.DB.Preload("Sender").
		Where("recipient_id = ? AND expires_at > ?", uid, now).
		Order("created_at DESC")

	if c.QueryBool("unread_only", false) {
		q = q.Where("is_read = ?", false)
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var notifications []models.Notification
	if err := q.Limit(limit).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch notifications",
		})
	}

	var unread int64
	if err := h.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND expires_at > ?", uid, false, now).
		Count(&unread).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch notifications",
		})
	}

	out := make([]fiber.Map, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		item := fiber.Map{
			"id":            n.ID,
			"type":          n.Type,
			"title":         n.Title,
			"message":       n.Message,
			"related_model": n.RelatedModel,
			"related_id":    n.RelatedID,
			"action_url":    n.ActionURL,
			"priority":      n.Priority,
			"is_read":       n.IsRead,
			"read_at":       n.ReadAt,
			"created_at":    n.CreatedAt,
		}
		if n.Sender != nil {
			item["sender"] = authorMini(n.Sender)
		}
		out = append(out, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"notifications": out,
			"unread_count":  unread,
		},
	})
}

// MarkRead marks one notification read. Only the recipient can do this.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid notification ID",
		})
	}

	var notification models.Notification
	if err := h.DB.First(&notification, "id = ?", notifID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Notification not found",
		})
	}

	if notification.RecipientID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to update this notification",
		})
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := h.DB.Save(&notification).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update notification",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification marked as read",
	})
}

// MarkAllRead marks every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	now := time.Now()
	if err := h.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", uid, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update notifications",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All notifications marked as read",
	})
}
