package models

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Method   string `gorm:"type:varchar(30);not null" json:"method"` // credit_card, debit_card, paypal, bank_transfer, crypto

	Fee       int64 `gorm:"default:0" json:"fee"`
	NetAmount int64 `json:"net_amount"` // always amount - fee, see BeforeSave

	Status      PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Reference   string        `gorm:"type:varchar(30);uniqueIndex" json:"reference"` // PAY-{code}
	Gateway     string        `gorm:"type:varchar(30)" json:"gateway"`
	GatewayRef  string        `gorm:"type:varchar(100)" json:"gateway_ref"`
	GatewayData datatypes.JSON `json:"gateway_data"`

	Description    string     `gorm:"type:text" json:"description"`
	RefundedAmount int64      `gorm:"default:0" json:"refunded_amount"`
	RefundReason   string     `gorm:"type:text" json:"refund_reason"`
	ProcessedAt    *time.Time `json:"processed_at"`
	RefundedAt     *time.Time `json:"refunded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Client  *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Creator *User    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Reference == "" {
		p.Reference = "PAY-" + GenerateRefCode()
	}
	return
}

// BeforeSave keeps the derived net amount in sync whenever amount or fee
// changes.
func (p *Payment) BeforeSave(tx *gorm.DB) (err error) {
	p.NetAmount = p.Amount - p.Fee
	return
}

// GenerateRefCode generates a random alphanumeric code
func GenerateRefCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
