package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCreator Role = "creator"
	RoleClient  Role = "client"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	Skills      datatypes.JSON `json:"skills"`       // ["golang", "design", ...]
	Bio         string         `gorm:"type:text" json:"bio"`
	ProfilePic  string         `gorm:"type:text" json:"profile_pic"`
	SocialLinks datatypes.JSON `json:"social_links"` // { twitter, linkedin, youtube, instagram }

	Wallet int64   `gorm:"default:0" json:"wallet"` // balance in cents
	Rating float64 `gorm:"default:0" json:"rating"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`
	IsPremium  bool `gorm:"default:false" json:"is_premium"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// Follow is one edge of the follower graph. The pair is unique so a user
// appears in a follower list at most once.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_follow_pair" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee *User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
