package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PriceTier is one named package inside Service.Tiers.
type PriceTier struct {
	Name         string `json:"name"` // basic / standard / premium
	Price        int64  `json:"price"`
	DeliveryDays int    `json:"delivery_days"`
	Revisions    int    `json:"revisions"`
}

type Service struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"index" json:"category"`

	// Tiers lives inside a JSON column, so price-range search filters rows
	// in memory after the store-side query.
	Tiers    datatypes.JSON `json:"tiers"`
	Features datatypes.JSON `json:"features"`
	Tags     datatypes.JSON `json:"tags"`

	Rating       float64 `gorm:"default:0" json:"rating"`
	TotalReviews int64   `gorm:"default:0" json:"total_reviews"`

	Featured bool `gorm:"default:false;index" json:"featured"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator *User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Reviews []ServiceReview `gorm:"foreignKey:ServiceID" json:"reviews,omitempty"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// DecodeTiers parses the Tiers JSON column.
func (s *Service) DecodeTiers() ([]PriceTier, error) {
	if len(s.Tiers) == 0 {
		return nil, nil
	}
	var tiers []PriceTier
	if err := json.Unmarshal(s.Tiers, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// TierPriceRange returns the cheapest and most expensive tier price.
// ok is false when the service has no tiers.
func TierPriceRange(tiers []PriceTier) (min, max int64, ok bool) {
	if len(tiers) == 0 {
		return 0, 0, false
	}
	min, max = tiers[0].Price, tiers[0].Price
	for _, t := range tiers[1:] {
		if t.Price < min {
			min = t.Price
		}
		if t.Price > max {
			max = t.Price
		}
	}
	return min, max, true
}

type ServiceReview struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"service_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (r *ServiceReview) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// AverageRating is the plain arithmetic mean, recomputed over the full
// review list every time a review is added.
func AverageRating(reviews []ServiceReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
