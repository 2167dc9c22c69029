package pipeline

// AccountMetadata holds the identity fields extracted from one page. An empty
// string means the field could not be determined.
type AccountMetadata struct {
	BankName           string `json:"bankName"`
	AccountHolderName  string `json:"accountHolderName"`
	AccountNumber      string `json:"accountNumber"`
	AccountType        string `json:"accountType"`
	Currency           string `json:"currency"`
	StatementStartDate string `json:"statementStartDate"`
	StatementEndDate   string `json:"statementEndDate"`
}

// TransactionRow is one row of a statement's transaction table, kept exactly
// as extracted. Amounts are not parsed.
type TransactionRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

// Account aggregates every page resolved to the same identifier. Metadata is
// the metadata of the page that created it.
type Account struct {
	ID           string           `json:"accountId"`
	Metadata     AccountMetadata  `json:"metadata"`
	Transactions []TransactionRow `json:"transactions"`
}

// Warning records a problem that did not abort the run.
type Warning struct {
	Page    int    `json:"page"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Result is the output of one pipeline run. Accounts are listed in the order
// they were first seen.
type Result struct {
	RunID        string    `json:"runId"`
	FileName     string    `json:"fileName"`
	PageCount    int       `json:"pageCount"`
	SkippedPages []int     `json:"skippedPages"`
	Warnings     []Warning `json:"warnings"`
	Accounts     []Account `json:"accounts"`
}

// TransactionCount returns the number of rows across all accounts.
func (r *Result) TransactionCount() int {
	n := 0
	for _, acc := range r.Accounts {
		n += len(acc.Transactions)
	}
	return n
}
