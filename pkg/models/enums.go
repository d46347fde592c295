package models

import "fmt"

// The source encodes transaction type and status as integers. Documents carry
// the string names; integers outside the known range serialize as Unknown(<n>)
// instead of failing the row.

var transactionTypes = map[int64]string{
	0: "Sale",
	1: "Purchase",
	2: "Adjustment",
}

var transactionStatuses = map[int64]string{
	0: "Pending",
	1: "Completed",
	2: "Cancelled",
}

func TransactionTypeName(v int64) string {
	if name, ok := transactionTypes[v]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", v)
}

func TransactionStatusName(v int64) string {
	if name, ok := transactionStatuses[v]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", v)
}
