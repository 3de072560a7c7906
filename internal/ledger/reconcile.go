package ledger

import (
	"context"

	"arcade_wallet/internal/domain"
)

// Drift is a wallet whose stored balance disagrees with the balance replayed
// from its transaction rows.
type Drift struct {
	WalletID string `json:"wallet_id"`
	Stored   int64  `json:"stored"`
	Computed int64  `json:"computed"`
}

// Reconcile recomputes every wallet balance as initial balance plus credits
// minus debits over the transaction log and reports any wallet that
// disagrees. An empty slice means the conservation invariant holds.
func (e *Engine) Reconcile(ctx context.Context) ([]Drift, error) {
	db := e.db.WithContext(ctx)

	type sumRow struct {
		WalletID string
		Total    int64
	}

	credits := map[string]int64{}
	var rows []sumRow
	err := db.Model(&domain.Transaction{}).
		Select("to_wallet_id AS wallet_id, SUM(points_amount) AS total").
		Where("to_wallet_id IS NOT NULL").
		Group("to_wallet_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		credits[r.WalletID] = r.Total
	}

	debits := map[string]int64{}
	rows = rows[:0]
	err = db.Model(&domain.Transaction{}).
		Select("from_wallet_id AS wallet_id, SUM(points_amount) AS total").
		Where("from_wallet_id IS NOT NULL").
		Group("from_wallet_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		debits[r.WalletID] = r.Total
	}

	var wallets []domain.Wallet
	if err := db.Find(&wallets).Error; err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, w := range wallets {
		computed := w.InitialBalance + credits[w.ID] - debits[w.ID]
		if computed != w.Balance {
			drifts = append(drifts, Drift{WalletID: w.ID, Stored: w.Balance, Computed: computed})
		}
	}
	return drifts, nil
}
