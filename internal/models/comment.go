package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Comment struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Text    string         `gorm:"type:text;not null" json:"text"`
	Replies datatypes.JSON `json:"replies"` // [{ user_id, text, created_at }]

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (cm *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if cm.ID == uuid.Nil {
		cm.ID = uuid.New()
	}
	return
}
