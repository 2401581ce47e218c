package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
	"github.com/nawaz1711/vibelog-pro/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	Notifier  *notify.Notifier
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"` // creator / client (admin never from public)
	Skills   []string `json:"skills"`
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func userPayload(u *models.User) fiber.Map {
	return fiber.Map{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"role":         u.Role,
		"skills":       u.Skills,
		"bio":          u.Bio,
		"profile_pic":  u.ProfilePic,
		"social_links": u.SocialLinks,
		"wallet":       u.Wallet,
		"rating":       u.Rating,
		"is_verified":  u.IsVerified,
		"is_premium":   u.IsPremium,
		"created_at":   u.CreatedAt,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	role := models.RoleCreator
	if req.Role == string(models.RoleClient) {
		role = models.RoleClient
	}

	errors := FieldErrors{}

	if name == "" {
		errors.Add("name", "Name is required")
	}
	if email == "" {
		errors.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errors.Add("email", "Invalid email format")
	}
	if password == "" {
		errors.Add("password", "Password is required")
	} else if len(password) < 6 {
		errors.Add("password", "Password must be at least 6 characters")
	}

	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		errs := FieldErrors{}
		errs.Add("email", "Email already registered")
		return validationFail(c, errs)
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process password",
		})
	}

	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, _ := json.Marshal(skills)

	u := models.User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     role,
		Skills:   datatypes.JSON(skillsJSON),
	}

	if err := h.DB.Create(&u).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Failed to register",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registered successfully",
		"data": fiber.Map{
			"token": token,
			"user":  userPayload(&u),
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errors := FieldErrors{}
	if email == "" {
		errors.Add("email", "Email is required")
	}
	if password == "" {
		errors.Add("password", "Password is required")
	}

	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	if !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"token": token,
			"user":  userPayload(&u),
		},
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	followers, following, err := h.followLists(uid)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	payload := userPayload(&u)
	payload["followers"] = followers
	payload["following"] = following

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payload,
	})
}

// followLists returns follower and following user ids for a user.
func (h *AuthHandler) followLists(userID uuid.UUID) ([]string, []string, error) {
	var edges []models.Follow
	if err := h.DB.Where("follower_id = ? OR followee_id = ?", userID, userID).Find(&edges).Error; err != nil {
		return nil, nil, err
	}

	followers := []string{}
	following := []string{}
	for _, e := range edges {
		if e.FolloweeID == userID {
			followers = append(followers, e.FollowerID.String())
		}
		if e.FollowerID == userID {
			following = append(following, e.FolloweeID.String())
		}
	}
	return followers, following, nil
}

type UpdateProfileReq struct {
	Name        *string           `json:"name"`
	Bio         *string           `json:"bio"`
	Skills      []string          `json:"skills"`
	SocialLinks map[string]string `json:"social_links"`
	ProfilePic  *string           `json:"profile_pic"`
}

// UpdateProfile merges an explicit allow-list of mutable fields. Anything
// else in the body is ignored.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Skills != nil {
		b, _ := json.Marshal(req.Skills)
		u.Skills = datatypes.JSON(b)
	}
	if req.SocialLinks != nil {
		// merge over existing links instead of replacing the object
		links := map[string]string{}
		if len(u.SocialLinks) > 0 {
			_ = json.Unmarshal(u.SocialLinks, &links)
		}
		for k, v := range req.SocialLinks {
			links[k] = v
		}
		b, _ := json.Marshal(links)
		u.SocialLinks = datatypes.JSON(b)
	}
	if req.ProfilePic != nil {
		u.ProfilePic = *req.ProfilePic
	}

	if err := h.DB.Save(&u).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    userPayload(&u),
	})
}

func (h *AuthHandler) Follow(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	if targetID == uid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Cannot follow yourself",
		})
	}

	var target models.User
	if err := h.DB.First(&target, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	var existing models.Follow
	err = h.DB.Where("follower_id = ? AND followee_id = ?", uid, targetID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Already following this user",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	edge := models.Follow{FollowerID: uid, FolloweeID: targetID}
	if err := h.DB.Create(&edge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to follow",
		})
	}

	var follower models.User
	_ = h.DB.First(&follower, "id = ?", uid).Error
	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  targetID,
		SenderID:     &uid,
		Type:         models.NotifFollow,
		Title:        "New follower",
		Message:      follower.Name + " started following you",
		RelatedModel: "User",
		RelatedID:    &uid,
		ActionURL:    "/profile/" + uid.String(),
	})

	followers, _, err := h.followLists(targetID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Followed successfully",
		"data":    fiber.Map{"followers": followers},
	})
}

func (h *AuthHandler) Unfollow(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var target models.User
	if err := h.DB.First(&target, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if err := h.DB.Where("follower_id = ? AND followee_id = ?", uid, targetID).
		Delete(&models.Follow{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to unfollow",
		})
	}

	followers, _, err := h.followLists(targetID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Unfollowed successfully",
		"data":    fiber.Map{"followers": followers},
	})
}
