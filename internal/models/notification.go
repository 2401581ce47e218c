package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifLike             NotificationType = "like"
	NotifComment          NotificationType = "comment"
	NotifFollow           NotificationType = "follow"
	NotifProjectRequest   NotificationType = "project_request"
	NotifProjectCompleted NotificationType = "project_completed"
	NotifPaymentReceived  NotificationType = "payment_received"
	NotifReviewReceived   NotificationType = "review_received"
	NotifAdminMessage     NotificationType = "admin_message"
)

// NotificationTTL is how long a notification is kept before the sweeper
// removes it.
const NotificationTTL = 30 * 24 * time.Hour

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index:idx_notif_recipient" json:"recipient_id"`
	SenderID    *uuid.UUID `gorm:"type:uuid" json:"sender_id,omitempty"`

	Type    NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title   string           `gorm:"type:varchar(100);not null" json:"title"`
	Message string           `gorm:"type:varchar(500);not null" json:"message"`

	RelatedModel string     `gorm:"type:varchar(20)" json:"related_model,omitempty"` // Post | Project | Payment | Service | User
	RelatedID    *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	ActionURL    string     `gorm:"type:text" json:"action_url,omitempty"`
	Priority     string     `gorm:"type:varchar(10);default:'medium'" json:"priority"` // low | medium | high

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = time.Now().Add(NotificationTTL)
	}
	return
}
