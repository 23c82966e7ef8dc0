package sqlstore

import (
	"context"
	"sync"
	"testing"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/lib/money"
	"github.com/IlyasAtabaev731/kodbank/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var openingAccounts = []models.NewAccount{
	{Name: "Kodbank Everyday", Type: models.AccountChecking, Balance: money.MustParse("14520.75")},
	{Name: "Kodbank Savings", Type: models.AccountSavings, Balance: money.MustParse("32000.00")},
}

// setupTestDB opens a fresh, migrated in-memory database.
func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	s, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	applied, err := s.Migrate("")
	require.NoError(t, err)
	require.True(t, applied)

	return s
}

func createUser(t *testing.T, s *Storage, email string) (*models.User, []models.Account) {
	t.Helper()
	ctx := context.Background()

	user, err := s.SaveUser(ctx, "Test User", email, []byte("hash"), openingAccounts)
	require.NoError(t, err)

	accounts, err := s.ListAccounts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	return user, accounts
}

func balance(t *testing.T, s *Storage, userID, accountID int64) money.Amount {
	t.Helper()

	accounts, err := s.AccountsByIDs(context.Background(), userID, accountID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	return accounts[0].Balance
}

func TestMigrateTwice(t *testing.T) {
	s := setupTestDB(t)

	applied, err := s.Migrate("")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New("mysql", "whatever")
	assert.Error(t, err)
}

func TestSaveUserAndFind(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := s.FindUserByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Test User", byEmail.Name)
	assert.Equal(t, []byte("hash"), byEmail.PasswordHash)
	assert.WithinDuration(t, user.CreatedAt, byEmail.CreatedAt, 0)

	byID, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", byID.Email)

	assert.Equal(t, "Kodbank Everyday", accounts[0].Name)
	assert.Equal(t, models.AccountChecking, accounts[0].Type)
	assert.Equal(t, money.MustParse("14520.75"), accounts[0].Balance)
	assert.Equal(t, models.AccountSavings, accounts[1].Type)
	assert.Equal(t, money.MustParse("32000.00"), accounts[1].Balance)
	assert.Less(t, accounts[0].ID, accounts[1].ID)
	assert.Equal(t, user.ID, accounts[0].UserID)
}

func TestFindUserMissing(t *testing.T) {
	s := setupTestDB(t)

	_, err := s.FindUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSaveUserDuplicateEmail(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	createUser(t, s, "dup@example.com")

	_, err := s.SaveUser(ctx, "Other", "dup@example.com", []byte("x"), openingAccounts)
	require.ErrorIs(t, err, storage.ErrUserExists)

	// The failed registration must not leave accounts behind.
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM accounts").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestAccountsByIDsFiltersOwner(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	alice, aliceAccounts := createUser(t, s, "alice@example.com")
	_, bobAccounts := createUser(t, s, "bob@example.com")

	got, err := s.AccountsByIDs(ctx, alice.ID, aliceAccounts[1].ID, bobAccounts[0].ID, 9999)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, aliceAccounts[1].ID, got[0].ID)

	got, err = s.AccountsByIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTransfer(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	from, to := accounts[0], accounts[1]

	err := s.Transfer(ctx, models.Transfer{
		UserID: user.ID,
		FromID: from.ID,
		ToID:   to.ID,
		Amount: money.MustParse("500"),
	})
	require.NoError(t, err)

	assert.Equal(t, money.MustParse("14020.75"), balance(t, s, user.ID, from.ID))
	assert.Equal(t, money.MustParse("32500.00"), balance(t, s, user.ID, to.ID))

	debits, err := s.ListTransactions(ctx, from.ID)
	require.NoError(t, err)
	require.Len(t, debits, 1)
	assert.Equal(t, models.TransactionDebit, debits[0].Type)
	assert.Equal(t, money.MustParse("500"), debits[0].Amount)
	assert.Equal(t, "Transfer to Kodbank Savings", debits[0].Description)

	credits, err := s.ListTransactions(ctx, to.ID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, models.TransactionCredit, credits[0].Type)
	assert.Equal(t, money.MustParse("500"), credits[0].Amount)
	assert.Equal(t, "Transfer from Kodbank Everyday", credits[0].Description)
	assert.WithinDuration(t, debits[0].CreatedAt, credits[0].CreatedAt, 0)
}

func TestTransferCustomDescriptionAndOrdering(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	tr := models.Transfer{UserID: user.ID, FromID: accounts[0].ID, ToID: accounts[1].ID, Amount: 100}

	tr.Description = "first"
	require.NoError(t, s.Transfer(ctx, tr))
	tr.Description = "second"
	require.NoError(t, s.Transfer(ctx, tr))

	txs, err := s.ListTransactions(ctx, accounts[0].ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "second", txs[0].Description)
	assert.Equal(t, "first", txs[1].Description)
}

func TestTransferBoundaries(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	from, to := accounts[0], accounts[1]

	err := s.Transfer(ctx, models.Transfer{UserID: user.ID, FromID: from.ID, ToID: to.ID, Amount: from.Balance + 1})
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)
	assert.Equal(t, from.Balance, balance(t, s, user.ID, from.ID))

	err = s.Transfer(ctx, models.Transfer{UserID: user.ID, FromID: from.ID, ToID: to.ID, Amount: from.Balance})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), balance(t, s, user.ID, from.ID))
	assert.Equal(t, from.Balance+to.Balance, balance(t, s, user.ID, to.ID))
}

func TestTransferForeignAccount(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	alice, aliceAccounts := createUser(t, s, "alice@example.com")
	bob, bobAccounts := createUser(t, s, "bob@example.com")

	tests := []struct {
		name     string
		from, to int64
	}{
		{name: "from foreign", from: bobAccounts[0].ID, to: aliceAccounts[0].ID},
		{name: "to foreign", from: aliceAccounts[0].ID, to: bobAccounts[0].ID},
		{name: "nonexistent", from: aliceAccounts[0].ID, to: 9999},
		{name: "same account", from: aliceAccounts[0].ID, to: aliceAccounts[0].ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Transfer(ctx, models.Transfer{UserID: alice.ID, FromID: tt.from, ToID: tt.to, Amount: 100})
			require.ErrorIs(t, err, storage.ErrAccountNotFound)
		})
	}

	assert.Equal(t, bobAccounts[0].Balance, balance(t, s, bob.ID, bobAccounts[0].ID))
	assert.Equal(t, aliceAccounts[0].Balance, balance(t, s, alice.ID, aliceAccounts[0].ID))
}

func TestTransferRollsBackOnFailure(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")

	_, err := s.DB().Exec(`CREATE TRIGGER reject_credit BEFORE INSERT ON transactions
		WHEN NEW.type = 'CREDIT'
		BEGIN SELECT RAISE(ABORT, 'credit rejected'); END`)
	require.NoError(t, err)

	err = s.Transfer(ctx, models.Transfer{UserID: user.ID, FromID: accounts[0].ID, ToID: accounts[1].ID, Amount: 500})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrInsufficientFunds)

	assert.Equal(t, accounts[0].Balance, balance(t, s, user.ID, accounts[0].ID))
	assert.Equal(t, accounts[1].Balance, balance(t, s, user.ID, accounts[1].ID))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n))
	assert.Zero(t, n)
}

func TestTransferIsNotDeduplicated(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	tr := models.Transfer{UserID: user.ID, FromID: accounts[0].ID, ToID: accounts[1].ID, Amount: money.MustParse("10")}

	require.NoError(t, s.Transfer(ctx, tr))
	require.NoError(t, s.Transfer(ctx, tr))

	assert.Equal(t, accounts[0].Balance-money.MustParse("20"), balance(t, s, user.ID, accounts[0].ID))

	txs, err := s.ListTransactions(ctx, accounts[0].ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTransferConcurrentOverdraw(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	user, accounts := createUser(t, s, "asha@example.com")
	from, to := accounts[0], accounts[1]

	// Each fits the balance alone, together they do not.
	amounts := []money.Amount{money.MustParse("10000"), money.MustParse("9000")}

	var wg sync.WaitGroup
	errs := make([]error, len(amounts))
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount money.Amount) {
			defer wg.Done()
			errs[i] = s.Transfer(ctx, models.Transfer{UserID: user.ID, FromID: from.ID, ToID: to.ID, Amount: amount})
		}(i, amount)
	}
	wg.Wait()

	var succeeded, rejected int
	var moved money.Amount
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
			moved += amounts[i]
		case assert.ErrorIs(t, err, storage.ErrInsufficientFunds):
			rejected++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, from.Balance-moved, balance(t, s, user.ID, from.ID))
	assert.Equal(t, to.Balance+moved, balance(t, s, user.ID, to.ID))
}
