package payment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew                 Status = "new"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusUsed                Status = "used"
	StatusIgnored             Status = "ignored"
)

// Payment is one normalized inbound deposit notification. It is created
// `new` at ingestion and moves pending_confirmation -> used through the
// check/confirm protocol; `used` is terminal.
type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null" json:"company_id"`
	ChannelID *uuid.UUID `gorm:"type:uuid" json:"channel_id,omitempty"`
	WalletID  *uuid.UUID `gorm:"type:uuid" json:"wallet_id,omitempty"`

	Amount   float64 `gorm:"not null" json:"amount"`
	Currency string  `gorm:"not null;default:AED" json:"currency"`

	TxnID         *string `gorm:"uniqueIndex" json:"txn_id,omitempty"`
	PayerPhone    *string `json:"payer_phone,omitempty"`
	ReceiverPhone *string `json:"receiver_phone,omitempty"`

	RawMessage string `gorm:"not null" json:"-"`

	Status       Status  `gorm:"not null;default:new" json:"status"`
	OrderID      *string `json:"order_id,omitempty"`
	ConfirmToken *string `gorm:"index" json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// ListFilter carries the optional admin-listing predicates; zero values mean
// "not filtered".
type ListFilter struct {
	Status      Status
	MinAmount   *float64
	MaxAmount   *float64
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	CompanyID   string
	ChannelID   string
	WalletID    string
	TxnIDSubstr string
}
