package handlers

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
)

type ServiceHandler struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
}

func NewServiceHandler(db *gorm.DB, notifier *notify.Notifier) *ServiceHandler {
	return &ServiceHandler{DB: db, Notifier: notifier}
}

type TierReq struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DeliveryDays int    `json:"delivery_days"`
	Revisions    int    `json:"revisions"`
}

type ServiceReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tiers       []TierReq `json:"tiers"`
	Features    []string  `json:"features"`
	Tags        []string  `json:"tags"`
}

func creatorMini(u *models.User) fiber.Map {
	if u == nil {
		return nil
	}
	return fiber.Map{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"bio":         u.Bio,
		"skills":      u.Skills,
		"profile_pic": u.ProfilePic,
		"rating":      u.Rating,
	}
}

func servicePayload(s *models.Service) fiber.Map {
	return fiber.Map{
		"id":            s.ID,
		"creator_id":    s.CreatorID,
		"creator":       creatorMini(s.Creator),
		"title":         s.Title,
		"description":   s.Description,
		"category":      s.Category,
		"tiers":         s.Tiers,
		"features":      s.Features,
		"tags":          s.Tags,
		"rating":        s.Rating,
		"total_reviews": s.TotalReviews,
		"featured":      s.Featured,
		"is_active":     s.IsActive,
		"created_at":    s.CreatedAt,
		"updated_at":    s.UpdatedAt,
	}
}

func tiersToJSON(reqTiers []TierReq) (datatypes.JSON, error) {
	tiers := make([]models.PriceTier, 0, len(reqTiers))
	for _, t := range reqTiers {
		tiers = append(tiers, models.PriceTier{
			Name:         t.Name,
			Price:        t.Price,
			DeliveryDays: t.DeliveryDays,
			Revisions:    t.Revisions,
		})
	}
	b, err := json.Marshal(tiers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// List searches services. Text and category filter in the store, the price
// range filters in memory because prices live inside the tiers JSON: a
// service matches when [min(tier prices), max(tier prices)] intersects the
// requested bound.
func (h *ServiceHandler) List(c *fiber.Ctx) error {
	qSearch := c.Query("q")
	category := c.Query("category")
	minPrice := int64(c.QueryInt("min_price", 0))
	maxPrice := int64(c.QueryInt("max_price", 0))

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := h.DB.Preload("Creator").
		Where("is_active = ?", true).
		Order("created_at DESC")

	if qSearch != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(qSearch)+"%")
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch services",
		})
	}

	if minPrice > 0 || maxPrice > 0 {
		filtered := make([]models.Service, 0, len(services))
		for _, s := range services {
			tiers, err := s.DecodeTiers()
			if err != nil {
				continue
			}
			lo, hi, ok := models.TierPriceRange(tiers)
			if !ok {
				continue
			}
			if minPrice > 0 && hi < minPrice {
				continue
			}
			if maxPrice > 0 && lo > maxPrice {
				continue
			}
			filtered = append(filtered, s)
		}
		services = filtered
	}

	total := len(services)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageItems := services[start:end]

	out := make([]fiber.Map, 0, len(pageItems))
	for i := range pageItems {
		out = append(out, servicePayload(&pageItems[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *ServiceHandler) Featured(c *fiber.Ctx) error {
	var services []models.Service
	if err := h.DB.Preload("Creator").
		Where("featured = ? AND is_active = ?", true, true).
		Order("rating DESC").
		Limit(6).
		Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch featured services",
		})
	}

	out := make([]fiber.Map, 0, len(services))
	for i := range services {
		out = append(out, servicePayload(&services[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *ServiceHandler) ByCategory(c *fiber.Ctx) error {
	var services []models.Service
	if err := h.DB.Preload("Creator").
		Where("category = ? AND is_active = ?", c.Params("category"), true).
		Order("rating DESC").
		Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch services",
		})
	}

	out := make([]fiber.Map, 0, len(services))
	for i := range services {
		out = append(out, servicePayload(&services[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *ServiceHandler) GetOne(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.Preload("Creator").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Reviews.User").
		First(&service, "id = ?", serviceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	payload := servicePayload(&service)

	reviews := make([]fiber.Map, 0, len(service.Reviews))
	for i := range service.Reviews {
		r := &service.Reviews[i]
		reviewerName := ""
		if r.User != nil {
			reviewerName = r.User.Name
		}
		reviews = append(reviews, fiber.Map{
			"id":         r.ID,
			"user_id":    r.UserID,
			"user_name":  reviewerName,
			"rating":     r.Rating,
			"comment":    r.Comment,
			"created_at": r.CreatedAt,
		})
	}
	payload["reviews"] = reviews

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payload,
	})
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req ServiceReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if strings.TrimSpace(req.Title) == "" || req.Category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Title and category are required",
		})
	}
	if len(req.Tiers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "At least one price tier is required",
		})
	}
	for _, t := range req.Tiers {
		if t.Price < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Tier price cannot be negative",
			})
		}
	}

	tiersJSON, err := tiersToJSON(req.Tiers)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process tiers",
		})
	}
	featuresJSON, _ := json.Marshal(req.Features)
	tagsJSON, _ := json.Marshal(req.Tags)

	service := models.Service{
		CreatorID:   uid,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tiers:       tiersJSON,
		Features:    datatypes.JSON(featuresJSON),
		Tags:        datatypes.JSON(tagsJSON),
		IsActive:    true,
	}

	if err := h.DB.Create(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create service",
		})
	}

	var creator models.User
	if err := h.DB.First(&creator, "id = ?", uid).Error; err == nil {
		service.Creator = &creator
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    servicePayload(&service),
	})
}

type UpdateServiceReq struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tiers       []TierReq `json:"tiers"`
	Features    []string  `json:"features"`
	Tags        []string  `json:"tags"`
	IsActive    *bool     `json:"is_active"`
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", serviceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	if service.CreatorID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to update this service",
		})
	}

	var req UpdateServiceReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		service.Title = *req.Title
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Category != nil && *req.Category != "" {
		service.Category = *req.Category
	}
	if req.Tiers != nil {
		tiersJSON, err := tiersToJSON(req.Tiers)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to process tiers",
			})
		}
		service.Tiers = tiersJSON
	}
	if req.Features != nil {
		b, _ := json.Marshal(req.Features)
		service.Features = datatypes.JSON(b)
	}
	if req.Tags != nil {
		b, _ := json.Marshal(req.Tags)
		service.Tags = datatypes.JSON(b)
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update service",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    servicePayload(&service),
	})
}

func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", serviceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	if service.CreatorID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to delete this service",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", serviceID).Delete(&models.ServiceReview{}).Error; err != nil {
			return err
		}
		return tx.Delete(&service).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete service",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service deleted successfully",
	})
}

type AddReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ServiceHandler) AddReview(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", serviceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	if service.CreatorID == uid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Cannot review your own service",
		})
	}

	var req AddReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
	}

	review := models.ServiceReview{
		ServiceID: serviceID,
		UserID:    uid,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	// the displayed rating is the mean over all reviews, recomputed in full
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		var reviews []models.ServiceReview
		if err := tx.Where("service_id = ?", serviceID).Find(&reviews).Error; err != nil {
			return err
		}

		return tx.Model(&models.Service{}).
			Where("id = ?", serviceID).
			Updates(map[string]interface{}{
				"rating":        models.AverageRating(reviews),
				"total_reviews": int64(len(reviews)),
			}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to add review",
		})
	}

	var reviewer models.User
	_ = h.DB.First(&reviewer, "id = ?", uid).Error
	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  service.CreatorID,
		SenderID:     &uid,
		Type:         models.NotifReviewReceived,
		Title:        "New review",
		Message:      reviewer.Name + " reviewed your service",
		RelatedModel: "Service",
		RelatedID:    &service.ID,
		ActionURL:    "/services/" + service.ID.String(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         review.ID,
			"service_id": review.ServiceID,
			"user_id":    review.UserID,
			"rating":     review.Rating,
			"comment":    review.Comment,
			"created_at": review.CreatedAt,
		},
	})
}
