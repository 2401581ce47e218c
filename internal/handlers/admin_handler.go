package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{DB: db}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// DeleteUser hard-deletes a user and the rows that reference them directly.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete user",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	var userCount, postCount, serviceCount, projectCount, paymentCount int64

	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &userCount},
		{&models.Post{}, &postCount},
		{&models.Service{}, &serviceCount},
		{&models.Project{}, &projectCount},
		{&models.Payment{}, &paymentCount},
	}
	for _, cnt := range counts {
		if err := h.DB.Model(cnt.model).Count(cnt.dst).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch stats",
			})
		}
	}

	var recentUsers []models.User
	if err := h.DB.Order("created_at DESC").Limit(5).Find(&recentUsers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch stats",
		})
	}

	var recentPayments []models.Payment
	if err := h.DB.Order("created_at DESC").Limit(5).Find(&recentPayments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch stats",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"totals": fiber.Map{
				"users":    userCount,
				"posts":    postCount,
				"services": serviceCount,
				"projects": projectCount,
				"payments": paymentCount,
			},
			"recent_users":    recentUsers,
			"recent_payments": recentPayments,
		},
	})
}
