package pipeline

// Ledger accumulates transaction rows per account for one run. Accounts are
// created once and only ever appended to.
type Ledger struct {
	accounts map[string]*Account
	order    []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*Account)}
}

// Record appends rows to the account id, creating it with meta when it does
// not exist yet. Existing metadata is never overwritten. It reports whether
// the account was created.
func (l *Ledger) Record(id string, meta AccountMetadata, rows []TransactionRow) bool {
	acc, ok := l.accounts[id]
	if !ok {
		acc = &Account{ID: id, Metadata: meta, Transactions: []TransactionRow{}}
		l.accounts[id] = acc
		l.order = append(l.order, id)
	}
	acc.Transactions = append(acc.Transactions, rows...)
	return !ok
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Accounts returns a copy of the accounts in creation order.
func (l *Ledger) Accounts() []Account {
	out := make([]Account, 0, len(l.order))
	for _, id := range l.order {
		acc := l.accounts[id]
		rows := make([]TransactionRow, len(acc.Transactions))
		copy(rows, acc.Transactions)
		out = append(out, Account{ID: acc.ID, Metadata: acc.Metadata, Transactions: rows})
	}
	return out
}
