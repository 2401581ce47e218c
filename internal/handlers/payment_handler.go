package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/services/gateway"
	"github.com/nawaz1711/vibelog-pro/internal/services/notify"
	"github.com/nawaz1711/vibelog-pro/internal/services/wallet"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Gateway  *gateway.GatewayService
	Wallet   *wallet.WalletService
	Notifier *notify.Notifier
}

func NewPaymentHandler(db *gorm.DB, gw *gateway.GatewayService, w *wallet.WalletService, notifier *notify.Notifier) *PaymentHandler {
	return &PaymentHandler{DB: db, Gateway: gw, Wallet: w, Notifier: notifier}
}

func paymentPayload(p *models.Payment) fiber.Map {
	return fiber.Map{
		"id":              p.ID,
		"project_id":      p.ProjectID,
		"client_id":       p.ClientID,
		"creator_id":      p.CreatorID,
		"amount":          p.Amount,
		"currency":        p.Currency,
		"method":          p.Method,
		"fee":             p.Fee,
		"net_amount":      p.NetAmount,
		"status":          p.Status,
		"reference":       p.Reference,
		"gateway":         p.Gateway,
		"description":     p.Description,
		"refunded_amount": p.RefundedAmount,
		"refund_reason":   p.RefundReason,
		"processed_at":    p.ProcessedAt,
		"refunded_at":     p.RefundedAt,
		"created_at":      p.CreatedAt,
	}
}

type CreatePaymentReq struct {
	ProjectID   string `json:"project_id"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// Create opens a pending payment for a project. The amount always comes from
// the project, the fee from the gateway's schedule for the chosen method.
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	var req CreatePaymentReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	if !h.Gateway.SupportedMethod(req.Method) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unsupported payment method",
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
			"message": "Only the client can pay for this project",
		})
	}

	if project.PaymentStatus == "paid" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Project is already paid",
		})
	}

	fee, err := h.Gateway.FeeFor(req.Method, project.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unsupported payment method",
		})
	}

	payment := models.Payment{
		ProjectID:   project.ID,
		ClientID:    project.ClientID,
		CreatorID:   project.CreatorID,
		Amount:      project.Amount,
		Currency:    "USD",
		Method:      req.Method,
		Fee:         fee,
		Status:      models.PaymentStatusPending,
		Gateway:     "internal",
		Description: req.Description,
	}

	if err := h.DB.Create(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create payment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    paymentPayload(&payment),
	})
}

// List returns payments the caller is part of, as payer or payee.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	q := h.DB.Where("client_id = ? OR creator_id = ?", uid, uid).
		Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch payments",
		})
	}

	out := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		out = append(out, paymentPayload(&payments[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *PaymentHandler) GetOne(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payment ID",
		})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Payment not found",
		})
	}

	if payment.ClientID != uid && payment.CreatorID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Not authorized to view this payment",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    paymentPayload(&payment),
	})
}

type callbackPayload struct {
	Reference  string `json:"reference"`
	Status     string `json:"status"` // COMPLETED | FAILED | REFUNDED
	GatewayRef string `json:"gateway_ref"`
	Reason     string `json:"reason"`
}

// HandleCallback settles a payment from a gateway webhook. The raw body is
// authenticated with HMAC-SHA256 via the X-Callback-Signature header before
// anything is parsed.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	signature := c.Get("X-Callback-Signature")
	body := c.Body()

	if !h.Gateway.ValidateSignature(signature, body) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid signature",
		})
	}

	var payload callbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
		})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "reference = ?", payload.Reference).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Payment not found",
		})
	}

	if payment.Status != models.PaymentStatusPending {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Payment already settled",
		})
	}

	switch payload.Status {
	case "COMPLETED":
		return h.settleCompleted(c, &payment, &payload, body)
	case "FAILED":
		payment.Status = models.PaymentStatusFailed
		payment.GatewayRef = payload.GatewayRef
		if err := h.DB.Save(&payment).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update payment",
			})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Payment marked as failed"})
	case "REFUNDED":
		now := time.Now()
		payment.Status = models.PaymentStatusRefunded
		payment.GatewayRef = payload.GatewayRef
		payment.RefundedAmount = payment.Amount
		payment.RefundReason = payload.Reason
		payment.RefundedAt = &now
		if err := h.DB.Save(&payment).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update payment",
			})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Payment marked as refunded"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown callback status",
		})
	}
}

// settleCompleted marks the payment completed, credits the creator's wallet
// with the net amount, flags the project as paid, and moves a pending project
// into progress. All of it inside one transaction.
func (h *PaymentHandler) settleCompleted(c *fiber.Ctx, payment *models.Payment, payload *callbackPayload, rawBody []byte) error {
	now := time.Now()

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentStatusCompleted
		payment.GatewayRef = payload.GatewayRef
		payment.GatewayData = datatypes.JSON(rawBody)
		payment.ProcessedAt = &now
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		if err := h.Wallet.Credit(tx, payment.CreatorID, payment.NetAmount, payment.ID,
			"Payment "+payment.Reference); err != nil {
			return err
		}

		var project models.Project
		if err := tx.First(&project, "id = ?", payment.ProjectID).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"payment_status": "paid"}
		if project.Status == models.ProjectStatusPending {
			updates["status"] = models.ProjectStatusInProgress
		}
		return tx.Model(&project).Updates(updates).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to settle payment",
		})
	}

	_ = h.Notifier.Notify(&models.Notification{
		RecipientID:  payment.CreatorID,
		SenderID:     &payment.ClientID,
		Type:         models.NotifPaymentReceived,
		Title:        "Payment received",
		Message:      "You received a payment of " + payment.Currency + " for your project",
		RelatedModel: "Payment",
		RelatedID:    &payment.ID,
		ActionURL:    "/payments/" + payment.ID.String(),
		Priority:     "high",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment completed",
	})
}
