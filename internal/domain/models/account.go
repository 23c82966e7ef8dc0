package models

import (
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/lib/money"
)

type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
)

// ParseAccountType rejects anything outside the known account types.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountChecking, AccountSavings:
		return t, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

type Account struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"-"`
	Name      string       `json:"name"`
	Type      AccountType  `json:"type"`
	Balance   money.Amount `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewAccount describes an account opened together with its owner.
type NewAccount struct {
	Name    string
	Type    AccountType
	Balance money.Amount
}
