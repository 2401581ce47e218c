package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PostType string

const (
	PostTypeBlog PostType = "blog"
	PostTypeVlog PostType = "vlog"
)

type Post struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`

	Title      string         `gorm:"not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Type       PostType       `gorm:"type:varchar(10);default:'blog'" json:"type"`
	CoverImage string         `gorm:"type:text" json:"cover_image"`
	Tags       datatypes.JSON `json:"tags"`
	Category   string         `gorm:"index" json:"category"`

	Views       int64 `gorm:"default:0" json:"views"`
	Shares      int64 `gorm:"default:0" json:"shares"`
	IsPublished bool  `gorm:"default:true" json:"is_published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PostLike records one like. The pair is unique so a post can be liked by a
// user at most once; unliking deletes the row.
type PostLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_post_like" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_post_like" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
