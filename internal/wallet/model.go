package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a receiving account with a daily spending cap. The
// used_today/last_reset_date pair is the authoritative usage counter and is
// only ever mutated through conditional updates in the repository.
type Wallet struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	CompanyID        uuid.UUID  `gorm:"type:uuid;not null" json:"company_id"`
	ChannelID        uuid.UUID  `gorm:"type:uuid;not null" json:"channel_id"`
	WalletLabel      string     `gorm:"not null" json:"wallet_label"`
	WalletIdentifier string     `gorm:"not null" json:"wallet_identifier"`
	DailyLimit       float64    `gorm:"not null;default:0" json:"daily_limit"`
	UsedToday        float64    `gorm:"not null;default:0" json:"used_today"`
	LastResetDate    *time.Time `gorm:"type:date" json:"last_reset_date,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
