package wallet

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrLimitExceeded     = errors.New("daily limit exceeded")
	ErrNoWalletAvailable = errors.New("no wallet available")
)

type Repository interface {
	GetByID(walletID string) (*Wallet, error)
	// GetCompanyActiveWallets returns active wallets for a company ordered
	// by id. When providerCode is non-empty only wallets whose channel is
	// bound to that provider are returned.
	GetCompanyActiveWallets(companyID, providerCode string) ([]Wallet, error)
	FindActiveByIdentifier(companyID, identifier string) (*Wallet, error)
	ResetIfStale(w *Wallet) error
	ChargeUsage(walletID string, amount float64) (*Wallet, error)
	// SumPaymentsToday is the derived usage view: the sum of payments linked
	// to the wallet since UTC midnight. Debug/reconciliation only, the
	// counter is authoritative.
	SumPaymentsToday(walletID string) (float64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *repository) GetByID(walletID string) (*Wallet, error) {
	var w Wallet
	err := r.db.Where("id = ?", walletID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) GetCompanyActiveWallets(companyID, providerCode string) ([]Wallet, error) {
	var wallets []Wallet

	q := r.db.Where("wallets.company_id = ? AND wallets.is_active = ?", companyID, true)
	if providerCode != "" {
		q = q.Joins("JOIN channels ON channels.id = wallets.channel_id").
			Joins("JOIN payment_providers ON payment_providers.id = channels.provider_id").
			Where("payment_providers.code = ?", providerCode)
	}

	err := q.Order("wallets.id asc").Find(&wallets).Error
	return wallets, err
}

func (r *repository) FindActiveByIdentifier(companyID, identifier string) (*Wallet, error) {
	var w Wallet
	err := r.db.Where("company_id = ? AND wallet_identifier = ? AND is_active = ?",
		companyID, identifier, true).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ResetIfStale zeroes used_today when last_reset_date is behind the current
// UTC date. The WHERE clause makes concurrent resets harmless: only one
// writer flips the row, the rest match zero rows.
func (r *repository) ResetIfStale(w *Wallet) error {
	today := utcMidnight(time.Now())
	if w.LastResetDate != nil && !utcMidnight(*w.LastResetDate).Before(today) {
		return nil
	}

	res := r.db.Model(&Wallet{}).
		Where("id = ? AND (last_reset_date IS NULL OR last_reset_date < ?)", w.ID, today).
		Updates(map[string]interface{}{"used_today": 0, "last_reset_date": today})
	if res.Error != nil {
		return res.Error
	}

	w.UsedToday = 0
	w.LastResetDate = &today
	return nil
}

// ChargeUsage applies the day-rollover reset and then a single conditional
// increment: used_today += amount only while the sum stays within
// daily_limit. Losing the condition under concurrent confirms surfaces as
// ErrLimitExceeded, never as an overcommitted counter.
func (r *repository) ChargeUsage(walletID string, amount float64) (*Wallet, error) {
	today := utcMidnight(time.Now())
	var charged Wallet

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Wallet{}).
			Where("id = ? AND (last_reset_date IS NULL OR last_reset_date < ?)", walletID, today).
			Updates(map[string]interface{}{"used_today": 0, "last_reset_date": today}).Error; err != nil {
			return err
		}

		res := tx.Model(&Wallet{}).
			Where("id = ? AND used_today + ? <= daily_limit", walletID, amount).
			UpdateColumn("used_today", gorm.Expr("used_today + ?", amount))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&Wallet{}).Where("id = ?", walletID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrLimitExceeded
		}

		return tx.Where("id = ?", walletID).First(&charged).Error
	})
	if err != nil {
		return nil, err
	}
	return &charged, nil
}

func (r *repository) SumPaymentsToday(walletID string) (float64, error) {
	start := utcMidnight(time.Now())
	end := start.Add(24 * time.Hour)

	var sum float64
	err := r.db.Table("payments").
		Where("wallet_id = ? AND created_at >= ? AND created_at < ?", walletID, start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
