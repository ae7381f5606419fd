package company

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	FindByAPIKey(apiKey string) (*Company, error)
	FindByID(id string) (*Company, error)
	FindChannelByAPIKey(apiKey string) (*Channel, error)
	FindChannelByID(id string) (*Channel, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByAPIKey(apiKey string) (*Company, error) {
	var c Company
	err := r.db.Where("api_key = ?", apiKey).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindByID(id string) (*Company, error) {
	var c Company
	err := r.db.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindChannelByAPIKey(apiKey string) (*Channel, error) {
	var ch Channel
	err := r.db.Preload("Company").Preload("Provider").
		Where("channel_api_key = ?", apiKey).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *repository) FindChannelByID(id string) (*Channel, error) {
	var ch Channel
	err := r.db.Preload("Provider").Where("id = ?", id).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
