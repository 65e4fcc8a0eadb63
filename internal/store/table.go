package store

import (
	"strings"

	"StockSync/internal/model"
)

const tablePrefix = "t_"

// TableName maps a ticker to its table: upper-cased, "." replaced by "_",
// prefixed with "t_". "_" never occurs in a valid ticker so the mapping is
// reversible by TickerFromTable.
func TableName(ticker string) (string, error) {
	t, err := model.NormalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	return tablePrefix + strings.ReplaceAll(t, ".", "_"), nil
}

// TickerFromTable reverses TableName. ok is false for tables that were not
// created by TableName.
func TickerFromTable(name string) (string, bool) {
	rest, found := strings.CutPrefix(name, tablePrefix)
	if !found || rest == "" {
		return "", false
	}
	ticker := strings.ReplaceAll(rest, "_", ".")
	norm, err := model.NormalizeTicker(ticker)
	if err != nil || norm != ticker {
		return "", false
	}
	return ticker, true
}

// quote returns name as an SQL identifier. Names come from TableName, whose
// character set never includes a double quote.
func quote(name string) string {
	return `"` + name + `"`
}
