package payment

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"github.com/zjoart/go-sms-pay/internal/wallet"
	"github.com/zjoart/go-sms-pay/pkg/logger"
)

// ErrInvalidCredentials covers both an unknown payment id and a wrong
// confirm token; callers are not told which one failed.
var ErrInvalidCredentials = errors.New("invalid payment_id or confirm_token")

const ReasonAmountMismatch = "amount_mismatch"

type MatchInfo struct {
	PaymentID string    `json:"payment_id"`
	TxnID     *string   `json:"txn_id,omitempty"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type CheckResult struct {
	Found        bool       `json:"found"`
	Match        bool       `json:"match"`
	Reason       string     `json:"reason,omitempty"`
	ConfirmToken string     `json:"confirm_token,omitempty"`
	OrderID      string     `json:"order_id,omitempty"`
	Payment      *MatchInfo `json:"payment,omitempty"`
}

type ConfirmResult struct {
	Success       bool   `json:"success"`
	AlreadyUsed   bool   `json:"already_used"`
	PaymentID     string `json:"payment_id"`
	Status        Status `json:"status"`
	WalletCharged bool   `json:"wallet_charged"`
}

// Service is the merchant-facing check/confirm state machine. All lookups
// are company-scoped; the conditional updates in the repository carry the
// concurrency guarantees, the service only sequences them.
type Service struct {
	Payments      Repository
	Wallets       wallet.Repository
	DefaultMaxAge int
}

func NewService(payments Repository, wallets wallet.Repository, defaultMaxAgeMinutes int) *Service {
	return &Service{Payments: payments, Wallets: wallets, DefaultMaxAge: defaultMaxAgeMinutes}
}

// Check looks for the newest unused payment inside the age window and, on an
// exact amount match, issues a fresh confirm token and parks the payment in
// pending_confirmation. A mismatch mutates nothing. Re-checking an already
// pending payment overwrites its token and order id.
func (s *Service) Check(companyID, orderID string, expectedAmount float64, txnID string, maxAgeMinutes int) (CheckResult, error) {
	if maxAgeMinutes <= 0 {
		maxAgeMinutes = s.DefaultMaxAge
	}
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeMinutes) * time.Minute)

	p, err := s.Payments.FindCheckCandidate(companyID, txnID, cutoff)
	if errors.Is(err, ErrNotFound) {
		return CheckResult{Found: false, Match: false}, nil
	}
	if err != nil {
		return CheckResult{}, err
	}

	info := &MatchInfo{
		PaymentID: p.ID.String(),
		TxnID:     p.TxnID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		CreatedAt: p.CreatedAt,
	}

	if p.Amount != expectedAmount {
		return CheckResult{Found: true, Match: false, Reason: ReasonAmountMismatch, Payment: info}, nil
	}

	token, err := generateConfirmToken()
	if err != nil {
		return CheckResult{}, err
	}

	if err := s.Payments.SetPendingConfirmation(p.ID.String(), orderID, token); err != nil {
		return CheckResult{}, err
	}

	return CheckResult{
		Found:        true,
		Match:        true,
		ConfirmToken: token,
		OrderID:      orderID,
		Payment:      info,
	}, nil
}

// MatchLookupResult is what the read-only legacy match reports; it never
// carries a confirm token.
type MatchLookupResult struct {
	Found     bool    `json:"found"`
	Match     bool    `json:"match"`
	PaymentID string  `json:"payment_id,omitempty"`
	TxnID     *string `json:"txn_id,omitempty"`
	Status    Status  `json:"status,omitempty"`
}

// Match is the legacy lookup kept for older merchant clients: it reports the
// newest unused payment for the company and currency, optionally narrowed by
// payer phone and age, without issuing a token or mutating anything. Unlike
// Check, the amount comparison tolerates sub-cent drift.
func (s *Service) Match(companyID string, amount float64, currency, payerPhone string, maxAgeMinutes int) (MatchLookupResult, error) {
	p, err := s.Payments.FindMostRecentMatch(companyID, currency, payerPhone, maxAgeMinutes)
	if errors.Is(err, ErrNotFound) {
		return MatchLookupResult{}, nil
	}
	if err != nil {
		return MatchLookupResult{}, err
	}

	return MatchLookupResult{
		Found:     true,
		Match:     math.Abs(p.Amount-amount) <= 0.01,
		PaymentID: p.ID.String(),
		TxnID:     p.TxnID,
		Status:    p.Status,
	}, nil
}

// Confirm finalizes a matched payment. It is idempotent: a payment that is
// already used reports already_used without touching the wallet again. Only
// the caller that wins the conditional used-transition charges the wallet;
// a failed charge (limit exceeded) is logged but does not roll back the
// status change.
func (s *Service) Confirm(companyID, paymentID, confirmToken string) (ConfirmResult, error) {
	p, err := s.Payments.GetByIDForCompany(companyID, paymentID)
	if errors.Is(err, ErrNotFound) {
		return ConfirmResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return ConfirmResult{}, err
	}

	if p.ConfirmToken == nil || *p.ConfirmToken != confirmToken {
		return ConfirmResult{}, ErrInvalidCredentials
	}

	if p.Status == StatusUsed {
		return ConfirmResult{Success: true, AlreadyUsed: true, PaymentID: paymentID, Status: StatusUsed}, nil
	}

	won, err := s.Payments.MarkUsed(paymentID, time.Now().UTC())
	if err != nil {
		return ConfirmResult{}, err
	}
	if !won {
		// a concurrent confirm got there first and owns the wallet charge
		return ConfirmResult{Success: true, AlreadyUsed: true, PaymentID: paymentID, Status: StatusUsed}, nil
	}

	charged := false
	if p.WalletID != nil {
		if _, err := s.Wallets.ChargeUsage(p.WalletID.String(), p.Amount); err != nil {
			// Known gap inherited from the original flow: the payment stays
			// used even when the charge is rejected, so a confirm can leave
			// the wallet counter short. Surfaced via wallet_charged.
			logger.Error("Wallet charge failed after confirm", logger.Fields{
				logger.PaymentIDKey: paymentID,
				logger.WalletIDKey:  p.WalletID.String(),
				logger.ErrorKey:     err.Error(),
			})
		} else {
			charged = true
		}
	}

	return ConfirmResult{
		Success:       true,
		AlreadyUsed:   false,
		PaymentID:     paymentID,
		Status:        StatusUsed,
		WalletCharged: charged,
	}, nil
}

func generateConfirmToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
