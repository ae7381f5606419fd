package payment

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("payment not found")
	ErrDuplicateTxn = errors.New("duplicate transaction id")
)

type Repository interface {
	Create(p *Payment) error
	GetByIDForCompany(companyID, paymentID string) (*Payment, error)
	// FindMostRecentMatch returns the newest unused payment for the company
	// and currency, optionally narrowed by payer phone and age.
	FindMostRecentMatch(companyID, currency, payerPhone string, maxAgeMinutes int) (*Payment, error)
	// FindCheckCandidate returns the newest non-used payment created at or
	// after cutoff, optionally narrowed to an exact txn id.
	FindCheckCandidate(companyID, txnID string, cutoff time.Time) (*Payment, error)
	// SetPendingConfirmation stores the confirm token and order id issued by
	// a successful check. Repeated checks overwrite both (last-check-wins).
	SetPendingConfirmation(paymentID, orderID, confirmToken string) error
	// MarkUsed flips the payment to used iff it is not used yet and reports
	// whether this caller won the transition. Exactly one concurrent
	// confirmer sees won=true.
	MarkUsed(paymentID string, usedAt time.Time) (won bool, err error)
	List(filter ListFilter, pageSize, offset int) ([]Payment, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(p *Payment) error {
	err := r.db.Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateTxn
	}
	return err
}

func (r *repository) GetByIDForCompany(companyID, paymentID string) (*Payment, error) {
	var p Payment
	err := r.db.Where("id = ? AND company_id = ?", paymentID, companyID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindMostRecentMatch(companyID, currency, payerPhone string, maxAgeMinutes int) (*Payment, error) {
	q := r.db.Where("company_id = ? AND currency = ? AND status IN ?",
		companyID, currency, []Status{StatusNew, StatusPendingConfirmation})

	if payerPhone != "" {
		q = q.Where("payer_phone = ?", payerPhone)
	}
	if maxAgeMinutes > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(maxAgeMinutes) * time.Minute)
		q = q.Where("created_at >= ?", cutoff)
	}

	var p Payment
	err := q.Order("created_at desc, id desc").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindCheckCandidate(companyID, txnID string, cutoff time.Time) (*Payment, error) {
	q := r.db.Where("company_id = ? AND created_at >= ? AND status <> ?",
		companyID, cutoff, StatusUsed)

	if txnID != "" {
		q = q.Where("txn_id = ?", txnID)
	}

	var p Payment
	err := q.Order("created_at desc, id desc").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) SetPendingConfirmation(paymentID, orderID, confirmToken string) error {
	res := r.db.Model(&Payment{}).
		Where("id = ? AND status <> ?", paymentID, StatusUsed).
		Updates(map[string]interface{}{
			"status":        StatusPendingConfirmation,
			"order_id":      orderID,
			"confirm_token": confirmToken,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkUsed(paymentID string, usedAt time.Time) (bool, error) {
	res := r.db.Model(&Payment{}).
		Where("id = ? AND status <> ?", paymentID, StatusUsed).
		Updates(map[string]interface{}{
			"status":  StatusUsed,
			"used_at": usedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(filter ListFilter, pageSize, offset int) ([]Payment, int64, error) {
	q := r.db.Model(&Payment{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MinAmount != nil {
		q = q.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		q = q.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.CompanyID != "" {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.ChannelID != "" {
		q = q.Where("channel_id = ?", filter.ChannelID)
	}
	if filter.WalletID != "" {
		q = q.Where("wallet_id = ?", filter.WalletID)
	}
	if filter.TxnIDSubstr != "" {
		q = q.Where("txn_id LIKE ?", "%"+filter.TxnIDSubstr+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Payment
	err := q.Order("created_at desc, id desc").Limit(pageSize).Offset(offset).Find(&items).Error
	return items, total, err
}
