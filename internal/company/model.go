package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is a merchant tenant. Its api_key is the credential for the
// public payment APIs and is immutable after provisioning.
type Company struct {
	ID                     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name                   string    `gorm:"not null" json:"name"`
	APIKey                 string    `gorm:"uniqueIndex;not null" json:"-"`
	IsActive               bool      `gorm:"default:true" json:"is_active"`
	CountryCode            *string   `json:"country_code,omitempty"`
	TelegramBotToken       *string   `json:"-"`
	TelegramDefaultGroupID *string   `json:"-"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Channel binds a company to one payment-provider integration. Its
// channel_api_key identifies the SMS source on ingestion.
type Channel struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null" json:"company_id"`
	Name            string     `gorm:"not null" json:"name"`
	Description     *string    `json:"description,omitempty"`
	ProviderID      *uuid.UUID `gorm:"type:uuid" json:"provider_id,omitempty"`
	ChannelAPIKey   string     `gorm:"uniqueIndex;not null" json:"-"`
	TelegramGroupID *string    `json:"-"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Company  *Company         `gorm:"foreignKey:CompanyID" json:"-"`
	Provider *PaymentProvider `gorm:"foreignKey:ProviderID" json:"-"`
}

type PaymentProvider struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `json:"description,omitempty"`
}
