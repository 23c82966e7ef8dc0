// Package bank implements registration, login, account queries and the
// transfer operation on top of the account ledger store.
package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Storage is the account ledger store.
type Storage interface {
	SaveUser(ctx context.Context, name, email string, passHash []byte, accounts []models.NewAccount) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	AccountsByIDs(ctx context.Context, userID int64, ids ...int64) ([]models.Account, error)
	ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	Transfer(ctx context.Context, t models.Transfer) error
}

type Config struct {
	// OpeningAccounts are created for every new user.
	OpeningAccounts []models.NewAccount
	BcryptCost      int
}

type Service struct {
	log     *slog.Logger
	storage Storage
	cfg     Config
}

func New(log *slog.Logger, storage Storage, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		log:     log,
		storage: storage,
		cfg:     cfg,
	}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "bank.Register"

	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, invalid("name, email and password are required")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid("password is too long")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.SaveUser(ctx, name, email, passHash, s.cfg.OpeningAccounts)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageFailure(op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", user.ID))

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "bank.Login"

	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.storage.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageFailure(op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Profile returns the user a credential refers to.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "bank.Profile"

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storageFailure(op, err)
	}

	return user, nil
}

func (s *Service) Accounts(ctx context.Context, userID int64) ([]models.Account, error) {
	const op = "bank.Accounts"

	accounts, err := s.storage.ListAccounts(ctx, userID)
	if err != nil {
		return nil, storageFailure(op, err)
	}

	return accounts, nil
}

// Transactions returns the ledger of an account owned by userID.
func (s *Service) Transactions(ctx context.Context, userID, accountID int64) ([]models.Transaction, error) {
	const op = "bank.Transactions"

	owned, err := s.storage.AccountsByIDs(ctx, userID, accountID)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	if len(owned) != 1 {
		return nil, ErrAccountNotFound
	}

	transactions, err := s.storage.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, storageFailure(op, err)
	}

	return transactions, nil
}
