package ledger

import "fmt"

// AccountNotFoundError reports a referenced account name with no matching
// account row. The name is the one the caller supplied, not the lookup key.
type AccountNotFoundError struct {
	Name string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.Name)
}

// EntryNotFoundError reports an update or delete of a missing entry row.
type EntryNotFoundError struct {
	ID uint
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry %d not found", e.ID)
}

// TransferNotFoundError reports an update or delete of a missing transfer row.
type TransferNotFoundError struct {
	ID uint
}

func (e *TransferNotFoundError) Error() string {
	return fmt.Sprintf("transfer %d not found", e.ID)
}
