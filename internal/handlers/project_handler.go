package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
)

type ProjectHandler struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
}

func NewProjectHandler(db *gorm.DB, notifier *notify.Notifier) *ProjectHandler {
	return &ProjectHandler{DB: db, Notifier: notifier}
}

func projectPayload(p *models.Project) fiber.Map {
	out := fiber.Map{
		"id":             p.ID,
		"client_id":      p.ClientID,
		"creator_id":     p.CreatorID,
		"service_id":     p.ServiceID,
		"requirements":   p.Requirements,
		"amount":         p.Amount,
		"deadline":       p.Deadline,
		"status":         p.Status,
		"payment_status": p.PaymentStatus,
		"milestones":     p.Milestones,
		"messages":       p.Messages,
		"completed_at":   p.CompletedAt,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
	if p.Client != nil {
		out["client"] = authorMini(p.Client)
	}
	if p.Creator != nil {
		out["creator"] = authorMini(p.Creator)
	}
	if p.Service != nil {
		out["service"] = fiber.Map{
			"id":       p.Service.ID,
			"title":    p.Service.Title,
			"category": p.Service.Category,
		}
	}
	return out
}

// List returns projects the caller participates in, as client or creator.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	q := h.DB.Preload("Client").Preload("Creator").Preload("Service").
		Where("client_id = ? OR creator_id = ?", uid, uid).
		Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch projects",
		})
	}

	out := make([]fiber.Map, 0, len(projects))
	for i := range projects {
		out = append(out, projectPayload(&projects[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

type CreateProjectReq struct {
	ServiceID    string     `json:"service_id"`
	Requirements string     `json:"requirements"`
	Amount       int64      `json:"amount"`
	Deadline     *time.Time `json:"deadline"`
}

// Create hires a creator through one of their services. The creator side of
// the project is always derived from the service, never from the request.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req CreateProjectReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	if strings.TrimSpace(req.Requirements) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Requirements are required",
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Amount must be positive",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ? AND is_active = ?", serviceID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	if service.CreatorID == uid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Cannot hire yourself",
		})
	}

	project := models.Project{
		ClientID:      uid,
		CreatorID:     service.CreatorID,
		ServiceID:     serviceID,
		Requirements:  req.Requirements,
		Amount:        req.Amount,
		Deadline:      req.Deadline,
		Status:        models.ProjectStatusPending,
		PaymentStatus: "unpaid",
	}

	if err := h.DB.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create project",
		})
	}

	var client models.User
	_ = h.DB.First(&client, "id = ?", uid).Error
	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  service.CreatorID,
		SenderID:     &uid,
		Type:         models.NotifProjectRequest,
		Title:        "New project request",
		Message:      client.Name + " wants to hire you for " + service.Title,
		RelatedModel: "Project",
		RelatedID:    &project.ID,
		ActionURL:    "/projects/" + project.ID.String(),
		Priority:     "high",
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    projectPayload(&project),
	})
}

func (h *ProjectHandler) GetOne(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.Preload("Client").Preload("Creator").Preload("Service").
		First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	if !project.IsParticipant(uid) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to view this project",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projectPayload(&project),
	})
}

type UpdateProjectReq struct {
	Requirements *string     `json:"requirements"`
	Amount       *int64      `json:"amount"`
	Deadline     *time.Time  `json:"deadline"`
	Milestones   []fiber.Map `json:"milestones"`
	Status       *string     `json:"status"` // cancelled is the only accepted value
}

// Update lets a participant edit project details. The only status change
// allowed here is cancelling a project that has not finished; completion
// goes through Complete.
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	if !project.IsParticipant(uid) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to update this project",
		})
	}

	var req UpdateProjectReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.Requirements != nil && strings.TrimSpace(*req.Requirements) != "" {
		project.Requirements = *req.Requirements
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Amount must be positive",
			})
		}
		if project.PaymentStatus == "paid" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Cannot change the amount of a paid project",
			})
		}
		project.Amount = *req.Amount
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}
	if req.Milestones != nil {
		b, err := json.Marshal(req.Milestones)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid milestones",
			})
		}
		project.Milestones = datatypes.JSON(b)
	}
	if req.Status != nil {
		if models.ProjectStatus(*req.Status) != models.ProjectStatusCancelled {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Only cancellation is allowed here",
			})
		}
		if project.Status.Terminal() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Project is already finished",
			})
		}
		project.Status = models.ProjectStatusCancelled
	}

	if err := h.DB.Save(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update project",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projectPayload(&project),
	})
}

// Complete marks a project completed. Only the client can do this, and only
// while the project is still open.
func (h *ProjectHandler) Complete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	if project.ClientID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the client can complete a project",
		})
	}

	if project.Status.Terminal() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Project is already finished",
		})
	}

	now := time.Now()
	project.Status = models.ProjectStatusCompleted
	project.CompletedAt = &now

	if err := h.DB.Save(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to complete project",
		})
	}

	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  project.CreatorID,
		SenderID:     &uid,
		Type:         models.NotifProjectCompleted,
		Title:        "Project completed",
		Message:      "Your project has been marked as completed",
		RelatedModel: "Project",
		RelatedID:    &project.ID,
		ActionURL:    "/projects/" + project.ID.String(),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projectPayload(&project),
	})
}

type ProjectMessageReq struct {
	Text string `json:"text"`
}

// AddMessage appends to the project's message thread.
func (h *ProjectHandler) AddMessage(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	if !project.IsParticipant(uid) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to message in this project",
		})
	}

	var req ProjectMessageReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Message text is required",
		})
	}

	var messages []models.ProjectMessage
	if len(project.Messages) > 0 {
		if err := json.Unmarshal(project.Messages, &messages); err != nil {
			messages = nil
		}
	}
	msg := models.ProjectMessage{
		SenderID:  uid.String(),
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	messages = append(messages, msg)

	b, err := json.Marshal(messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to add message",
		})
	}

	if err := h.DB.Model(&project).Update("messages", datatypes.JSON(b)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to add message",
		})
	}

	recipient := project.CreatorID
	if uid == project.CreatorID {
		recipient = project.ClientID
	}
	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  recipient,
		SenderID:     &uid,
		Type:         models.NotifComment,
		Title:        "New project message",
		Message:      req.Text,
		RelatedModel: "Project",
		RelatedID:    &project.ID,
		ActionURL:    "/projects/" + project.ID.String(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}
