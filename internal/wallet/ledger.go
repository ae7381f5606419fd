package wallet

// Ledger selects receiving wallets under their daily caps. Selection is
// advisory: it never reserves capacity, the conditional increment in
// ChargeUsage is the only gate that counts.
type Ledger struct {
	Repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{Repo: repo}
}

// SelectWallet returns an active wallet of the company that can still absorb
// amount today. Candidates are least-loaded first, ties broken by ascending
// id. A provider filter that matches nothing fails outright, it does not
// fall back to unfiltered selection.
func (l *Ledger) SelectWallet(companyID string, amount float64, providerCode string) (*Wallet, error) {
	wallets, err := l.Repo.GetCompanyActiveWallets(companyID, providerCode)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, ErrNoWalletAvailable
	}

	var best *Wallet
	for i := range wallets {
		w := &wallets[i]
		if err := l.Repo.ResetIfStale(w); err != nil {
			return nil, err
		}

		if w.UsedToday+amount > w.DailyLimit {
			continue
		}

		if best == nil || w.UsedToday < best.UsedToday {
			best = w
		}
	}

	if best == nil {
		return nil, ErrNoWalletAvailable
	}
	return best, nil
}
