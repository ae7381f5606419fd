package wallet

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	wallets   []Wallet
	providers map[uuid.UUID]string
	charges   map[uuid.UUID]float64
}

func newFakeRepo(wallets ...Wallet) *fakeRepo {
	return &fakeRepo{
		wallets:   wallets,
		providers: make(map[uuid.UUID]string),
		charges:   make(map[uuid.UUID]float64),
	}
}

func (f *fakeRepo) GetByID(walletID string) (*Wallet, error) {
	for i := range f.wallets {
		if f.wallets[i].ID.String() == walletID {
			return &f.wallets[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetCompanyActiveWallets(companyID, providerCode string) ([]Wallet, error) {
	var out []Wallet
	for _, w := range f.wallets {
		if w.CompanyID.String() != companyID || !w.IsActive {
			continue
		}
		if providerCode != "" && f.providers[w.ID] != providerCode {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeRepo) FindActiveByIdentifier(companyID, identifier string) (*Wallet, error) {
	for i := range f.wallets {
		w := &f.wallets[i]
		if w.CompanyID.String() == companyID && w.WalletIdentifier == identifier && w.IsActive {
			return w, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ResetIfStale(w *Wallet) error {
	today := utcMidnight(time.Now())
	if w.LastResetDate == nil || utcMidnight(*w.LastResetDate).Before(today) {
		w.UsedToday = 0
		w.LastResetDate = &today
	}
	return nil
}

func (f *fakeRepo) ChargeUsage(walletID string, amount float64) (*Wallet, error) {
	w, err := f.GetByID(walletID)
	if err != nil {
		return nil, err
	}
	if w.UsedToday+amount > w.DailyLimit {
		return nil, ErrLimitExceeded
	}
	w.UsedToday += amount
	f.charges[w.ID] += amount
	return w, nil
}

func (f *fakeRepo) SumPaymentsToday(walletID string) (float64, error) {
	w, err := f.GetByID(walletID)
	if err != nil {
		return 0, err
	}
	return f.charges[w.ID], nil
}

func today() *time.Time {
	t := utcMidnight(time.Now())
	return &t
}

func testWallet(companyID uuid.UUID, used, limit float64) Wallet {
	return Wallet{
		ID:            uuid.New(),
		CompanyID:     companyID,
		ChannelID:     uuid.New(),
		DailyLimit:    limit,
		UsedToday:     used,
		LastResetDate: today(),
		IsActive:      true,
	}
}

func TestSelectWallet_RespectsDailyLimit(t *testing.T) {
	companyID := uuid.New()
	w := testWallet(companyID, 450, 500)
	ledger := NewLedger(newFakeRepo(w))

	_, err := ledger.SelectWallet(companyID.String(), 100, "")
	assert.ErrorIs(t, err, ErrNoWalletAvailable)

	got, err := ledger.SelectWallet(companyID.String(), 50, "")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}

func TestSelectWallet_PicksLeastLoaded(t *testing.T) {
	companyID := uuid.New()
	busy := testWallet(companyID, 300, 1000)
	idle := testWallet(companyID, 10, 1000)
	ledger := NewLedger(newFakeRepo(busy, idle))

	got, err := ledger.SelectWallet(companyID.String(), 100, "")
	require.NoError(t, err)
	assert.Equal(t, idle.ID, got.ID)
}

func TestSelectWallet_TieBreaksOnFirstCandidate(t *testing.T) {
	companyID := uuid.New()
	first := testWallet(companyID, 100, 1000)
	second := testWallet(companyID, 100, 1000)
	ledger := NewLedger(newFakeRepo(first, second))

	got, err := ledger.SelectWallet(companyID.String(), 100, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestSelectWallet_ProviderFilterDoesNotFallBack(t *testing.T) {
	companyID := uuid.New()
	w := testWallet(companyID, 0, 1000)
	repo := newFakeRepo(w)
	repo.providers[w.ID] = "eand_money"
	ledger := NewLedger(repo)

	got, err := ledger.SelectWallet(companyID.String(), 100, "eand_money")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	// an unmatched provider filter fails even though an eligible wallet exists
	_, err = ledger.SelectWallet(companyID.String(), 100, "stripe")
	assert.ErrorIs(t, err, ErrNoWalletAvailable)
}

func TestSelectWallet_ResetsStaleUsage(t *testing.T) {
	companyID := uuid.New()
	yesterday := utcMidnight(time.Now()).Add(-24 * time.Hour)
	w := testWallet(companyID, 480, 500)
	w.LastResetDate = &yesterday
	ledger := NewLedger(newFakeRepo(w))

	got, err := ledger.SelectWallet(companyID.String(), 100, "")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, 0.0, got.UsedToday)
}

func TestSelectWallet_SkipsInactiveWallets(t *testing.T) {
	companyID := uuid.New()
	w := testWallet(companyID, 0, 1000)
	w.IsActive = false
	ledger := NewLedger(newFakeRepo(w))

	_, err := ledger.SelectWallet(companyID.String(), 100, "")
	assert.ErrorIs(t, err, ErrNoWalletAvailable)
}

// The fake's ChargeUsage models the conditional increment the repository
// issues as a single UPDATE (used_today += amount only while the sum stays
// within daily_limit); this test pins the select-then-charge flow to that
// contract.
func TestSelectThenCharge_NeverExceedsDailyLimit(t *testing.T) {
	companyID := uuid.New()
	w := testWallet(companyID, 0, 500)
	repo := newFakeRepo(w)
	ledger := NewLedger(repo)

	var charged float64
	for i := 0; i < 10; i++ {
		selected, err := ledger.SelectWallet(companyID.String(), 80, "")
		if err != nil {
			assert.ErrorIs(t, err, ErrNoWalletAvailable)
			break
		}
		if _, err := repo.ChargeUsage(selected.ID.String(), 80); err != nil {
			// selection is advisory, the charge is the gate
			assert.ErrorIs(t, err, ErrLimitExceeded)
			continue
		}
		charged += 80
	}

	assert.LessOrEqual(t, charged, 500.0)
	got, err := repo.GetByID(w.ID.String())
	require.NoError(t, err)
	assert.Equal(t, charged, got.UsedToday)
}

// A charge between selection and commit can invalidate the selection; the
// late charge must fail loudly instead of overcommitting.
func TestChargeAfterStaleSelectionFailsWithLimitExceeded(t *testing.T) {
	companyID := uuid.New()
	w := testWallet(companyID, 0, 500)
	repo := newFakeRepo(w)
	ledger := NewLedger(repo)

	selected, err := ledger.SelectWallet(companyID.String(), 300, "")
	require.NoError(t, err)

	// another confirm consumes the capacity first
	_, err = repo.ChargeUsage(selected.ID.String(), 400)
	require.NoError(t, err)

	_, err = repo.ChargeUsage(selected.ID.String(), 300)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	got, err := repo.GetByID(w.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.UsedToday)
}
