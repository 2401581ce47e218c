package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"service_id"`

	Requirements string     `gorm:"type:text" json:"requirements"`
	Amount       int64      `gorm:"not null" json:"amount"`
	Deadline     *time.Time `json:"deadline"`

	Status        ProjectStatus  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus string         `gorm:"type:varchar(20);default:'unpaid'" json:"payment_status"` // unpaid | paid
	Milestones    datatypes.JSON `json:"milestones"`
	Messages      datatypes.JSON `json:"messages"` // embedded thread: [{ sender_id, text, created_at }]

	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client  *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Creator *User    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// IsParticipant reports whether userID is the project's client or creator.
func (p *Project) IsParticipant(userID uuid.UUID) bool {
	return p.ClientID == userID || p.CreatorID == userID
}

// ProjectMessage is one entry of the embedded message thread.
type ProjectMessage struct {
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
