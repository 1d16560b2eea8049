package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// balanceScale is the number of fractional digits on stored balances.
const balanceScale = 2

// Engine applies expense, income and transfer mutations to the store while
// keeping account balances consistent with the rows. Every operation runs in
// one transaction: the row change and all affected balance changes commit
// together or not at all. It is the only legitimate path that mutates
// account balances.
type Engine struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Key normalizes an account name for lookups and delta merging. Account
// references are matched case-insensitively.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// delta is the pending balance change for one account, merged across every
// effect of a single operation so each account is written exactly once.
type delta struct {
	name   string
	amount decimal.Decimal
}

func addDelta(m map[string]*delta, name string, d decimal.Decimal) {
	k := Key(name)
	if cur, ok := m[k]; ok {
		cur.amount = cur.amount.Add(d)
		return
	}
	m[k] = &delta{name: name, amount: d}
}

// entryDelta is the signed balance effect of an entry on its account.
func entryDelta(e *models.Entry) decimal.Decimal {
	if e.Type == models.EntryTypeExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// destAmount is the amount credited to the destination account. A
// cross-currency transfer carries its own destination leg amount.
func destAmount(t *models.Transfer) decimal.Decimal {
	if t.ToAmount != nil {
		return *t.ToAmount
	}
	return t.Amount
}

// addTransferDeltas merges the two opposing balance effects of a transfer.
// With invert the effects are reversed, reverting the transfer. Self
// transfers contribute nothing.
func addTransferDeltas(m map[string]*delta, t *models.Transfer, invert bool) {
	if Key(t.FromAccount) == Key(t.ToAccount) {
		return
	}
	from, to := t.Amount.Neg(), destAmount(t)
	if invert {
		from, to = t.Amount, destAmount(t).Neg()
	}
	addDelta(m, t.FromAccount, from)
	addDelta(m, t.ToAccount, to)
}

func findAccount(tx *gorm.DB, name string) (*models.Account, error) {
	var acc models.Account
	err := tx.Where("LOWER(name) = ?", Key(name)).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &AccountNotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// applyDelta adjusts one account balance and persists it. The balance is
// rounded half-up after every adjustment so stored values always carry two
// fractional digits regardless of caller-supplied precision.
func applyDelta(tx *gorm.DB, name string, d decimal.Decimal) error {
	acc, err := findAccount(tx, name)
	if err != nil {
		return err
	}
	acc.Balance = acc.Balance.Add(d).Round(balanceScale)
	return tx.Save(acc).Error
}

// applyDeltas writes every non-zero merged delta, one write per account.
func applyDeltas(tx *gorm.DB, m map[string]*delta) error {
	for _, d := range m {
		if d.amount.IsZero() {
			continue
		}
		if err := applyDelta(tx, d.name, d.amount); err != nil {
			return err
		}
	}
	return nil
}

// AddEntry inserts an expense/income row and adjusts its account balance.
// The new id is set on entry.
func (e *Engine) AddEntry(ctx context.Context, entry *models.Entry) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyDelta(tx, entry.Account, entryDelta(entry)); err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// UpdateEntry replaces an entry row and moves balances accordingly. The
// revert of the prior row and the effect of the new row are merged per
// account first, so an update that keeps the account writes its balance
// once instead of reading a stale intermediate value.
func (e *Engine) UpdateEntry(ctx context.Context, updated *models.Entry) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.Entry
		err := tx.First(&prior, updated.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EntryNotFoundError{ID: updated.ID}
		}
		if err != nil {
			return err
		}

		deltas := make(map[string]*delta)
		addDelta(deltas, prior.Account, entryDelta(&prior).Neg())
		addDelta(deltas, updated.Account, entryDelta(updated))
		if err := applyDeltas(tx, deltas); err != nil {
			return err
		}
		// Save writes every column, and the caller-built row carries a zero
		// creation stamp. Its nil conversion snapshot is kept as is, which
		// re-queues the changed record for reconciliation.
		updated.CreatedAt = prior.CreatedAt
		return tx.Save(updated).Error
	})
}

// DeleteEntry removes an entry row and reverts its balance effect.
func (e *Engine) DeleteEntry(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		err := tx.First(&entry, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EntryNotFoundError{ID: id}
		}
		if err != nil {
			return err
		}
		if err := applyDelta(tx, entry.Account, entryDelta(&entry).Neg()); err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
}

// AddTransfer inserts a transfer row, debiting the source and crediting the
// destination. Both accounts must exist even for a self transfer, which is
// recorded without touching any balance.
func (e *Engine) AddTransfer(ctx context.Context, t *models.Transfer) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findAccount(tx, t.FromAccount); err != nil {
			return err
		}
		if _, err := findAccount(tx, t.ToAccount); err != nil {
			return err
		}
		deltas := make(map[string]*delta)
		addTransferDeltas(deltas, t, false)
		if err := applyDeltas(tx, deltas); err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

// UpdateTransfer replaces a transfer row, reverting the prior legs and
// applying the new ones. All four leg effects are merged per account before
// any write, so overlapping accounts across the old and new state are never
// double-counted.
func (e *Engine) UpdateTransfer(ctx context.Context, updated *models.Transfer) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.Transfer
		err := tx.First(&prior, updated.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &TransferNotFoundError{ID: updated.ID}
		}
		if err != nil {
			return err
		}

		deltas := make(map[string]*delta)
		addTransferDeltas(deltas, &prior, true)
		addTransferDeltas(deltas, updated, false)
		if err := applyDeltas(tx, deltas); err != nil {
			return err
		}
		// as in UpdateEntry: preserve the creation stamp, keep the nil
		// snapshot so the changed record gets reconciled again
		updated.CreatedAt = prior.CreatedAt
		return tx.Save(updated).Error
	})
}

// DeleteTransfer removes a transfer row, crediting the source back and
// debiting the destination.
func (e *Engine) DeleteTransfer(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Transfer
		err := tx.First(&t, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &TransferNotFoundError{ID: id}
		}
		if err != nil {
			return err
		}
		deltas := make(map[string]*delta)
		addTransferDeltas(deltas, &t, true)
		if err := applyDeltas(tx, deltas); err != nil {
			return err
		}
		return tx.Delete(&t).Error
	})
}
