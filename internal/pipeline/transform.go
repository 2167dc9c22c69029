package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// transformMetadata maps the metadata reply object onto AccountMetadata.
// Missing, null or non-scalar fields become "".
func transformMetadata(raw map[string]interface{}) AccountMetadata {
	return AccountMetadata{
		BankName:           getStringField(raw, "bankName"),
		AccountHolderName:  getStringField(raw, "accountHolderName"),
		AccountNumber:      getStringField(raw, "accountNumber"),
		AccountType:        getStringField(raw, "accountType"),
		Currency:           getStringField(raw, "currency"),
		StatementStartDate: getStringField(raw, "statementStartDate"),
		StatementEndDate:   getStringField(raw, "statementEndDate"),
	}
}

// transformTransactions maps the "transactions" array onto rows, keeping
// order. Anything that is not a row object is skipped and reported in notes.
func transformTransactions(raw map[string]interface{}) (rows []TransactionRow, notes []string) {
	txAny, ok := raw["transactions"]
	if !ok || txAny == nil {
		return []TransactionRow{}, nil
	}

	txSlice, ok := txAny.([]interface{})
	if !ok {
		return []TransactionRow{}, []string{fmt.Sprintf("'transactions' is %T, want array; page contributes no rows", txAny)}
	}

	rows = make([]TransactionRow, 0, len(txSlice))
	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			notes = append(notes, fmt.Sprintf("transaction %d is %T, want object; skipped", i, item))
			continue
		}
		rows = append(rows, TransactionRow{
			Date:        getStringField(obj, "date"),
			Description: getStringField(obj, "description"),
			Debit:       getStringField(obj, "debit"),
			Credit:      getStringField(obj, "credit"),
			Balance:     getStringField(obj, "balance"),
		})
	}

	return rows, notes
}

func getStringField(m map[string]interface{}, key string) string {
	switch val := m[key].(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
