package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/storage"
)

// Transfer moves t.Amount from t.FromID to t.ToID and appends the DEBIT and
// CREDIT ledger rows, all in one database transaction.
//
// Ownership and balance are read inside that transaction with the account
// rows locked, so concurrent transfers from the same account are serialized
// and each sees the balance left by the previous one.
func (s *Storage) Transfer(ctx context.Context, t models.Transfer) error {
	const op = "storage.sqlstore.Transfer"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	from, to, err := s.lockTransferAccounts(ctx, tx, t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if from.Balance < t.Amount {
		return fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $3",
		t.Amount, from.ID, t.Amount,
	)
	if err != nil {
		return fmt.Errorf("%s: debit: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: debit: %w", op, err)
	} else if n != 1 {
		return fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE id = $2",
		t.Amount, to.ID,
	); err != nil {
		return fmt.Errorf("%s: credit: %w", op, err)
	}

	createdAt := now()

	if err := insertTransaction(ctx, tx, from.ID, t, models.TransactionDebit, t.DebitDescription(to), createdAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := insertTransaction(ctx, tx, to.ID, t, models.TransactionCredit, t.CreditDescription(from), createdAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// lockTransferAccounts loads both sides of t, filtered to t.UserID. Rows are
// locked in id order so opposite-direction transfers cannot deadlock.
func (s *Storage) lockTransferAccounts(ctx context.Context, tx *sql.Tx, t models.Transfer) (from, to models.Account, err error) {
	query, args := accountsByIDsQuery(t.UserID, []int64{t.FromID, t.ToID})

	rows, err := tx.QueryContext(ctx, query+s.lockRows, args...)
	if err != nil {
		return from, to, err
	}

	accounts, err := scanAccounts(rows)
	if err != nil {
		return from, to, err
	}

	var foundFrom, foundTo bool
	for _, a := range accounts {
		switch a.ID {
		case t.FromID:
			from, foundFrom = a, true
		case t.ToID:
			to, foundTo = a, true
		}
	}

	if len(accounts) != 2 || !foundFrom || !foundTo {
		return from, to, storage.ErrAccountNotFound
	}

	return from, to, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, accountID int64, t models.Transfer, typ models.TransactionType, description string, createdAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO transactions (account_id, amount, type, description, created_at) VALUES ($1, $2, $3, $4, $5)",
		accountID, t.Amount, string(typ), description, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", typ, err)
	}

	return nil
}
