package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
)

const accountColumns = "id, user_id, name, type, balance, created_at"

// ListAccounts returns the user's accounts ordered by id.
func (s *Storage) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	const op = "storage.sqlstore.ListAccounts"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = $1 ORDER BY id", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, nil
}

// AccountsByIDs returns those of ids that exist and are owned by userID,
// ordered by id. Unknown and foreign ids are silently left out.
func (s *Storage) AccountsByIDs(ctx context.Context, userID int64, ids ...int64) ([]models.Account, error) {
	const op = "storage.sqlstore.AccountsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args := accountsByIDsQuery(userID, ids)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, nil
}

func accountsByIDsQuery(userID int64, ids []int64) (string, []any) {
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)

	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = "$" + strconv.Itoa(i+2)
	}

	query := "SELECT " + accountColumns + " FROM accounts WHERE user_id = $1 AND id IN (" +
		strings.Join(placeholders, ", ") + ") ORDER BY id"

	return query, args
}

// ListTransactions returns an account's ledger, most recent first.
func (s *Storage) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	const op = "storage.sqlstore.ListTransactions"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, amount, type, description, created_at FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var (
			t   models.Transaction
			typ string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &typ, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if t.Type, err = models.ParseTransactionType(typ); err != nil {
			return nil, fmt.Errorf("%s: transaction %d: %w", op, t.ID, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return transactions, nil
}

func scanAccounts(rows *sql.Rows) ([]models.Account, error) {
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var (
			a   models.Account
			typ string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}

		var err error
		if a.Type, err = models.ParseAccountType(typ); err != nil {
			return nil, fmt.Errorf("account %d: %w", a.ID, err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
