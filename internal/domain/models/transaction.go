package models

import (
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/lib/money"
)

type TransactionType string

const (
	TransactionDebit  TransactionType = "DEBIT"
	TransactionCredit TransactionType = "CREDIT"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionDebit, TransactionCredit:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is one immutable ledger row. Amount is always positive; Type
// carries the direction.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"-"`
	Amount      money.Amount    `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Transfer moves Amount between two accounts owned by UserID.
type Transfer struct {
	UserID      int64
	FromID      int64
	ToID        int64
	Amount      money.Amount
	Description string
}

// DebitDescription is the text of the source side ledger row.
func (t Transfer) DebitDescription(to Account) string {
	if t.Description != "" {
		return t.Description
	}
	return "Transfer to " + to.Name
}

// CreditDescription is the text of the destination side ledger row.
func (t Transfer) CreditDescription(from Account) string {
	if t.Description != "" {
		return t.Description
	}
	return "Transfer from " + from.Name
}
