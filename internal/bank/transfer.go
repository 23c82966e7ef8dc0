package bank

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/storage"
)

const maxDescriptionLen = 255

// Transfer moves money between two accounts of the same user. Requests are
// not deduplicated: submitting the same transfer twice moves the amount twice.
func (s *Service) Transfer(ctx context.Context, t models.Transfer) error {
	const op = "bank.Transfer"

	if t.UserID <= 0 {
		return ErrUnauthorized
	}

	t.Description = strings.TrimSpace(t.Description)
	if err := validateTransfer(t); err != nil {
		return err
	}

	err := s.storage.Transfer(ctx, t)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, storage.ErrInsufficientFunds):
		return ErrInsufficientFunds
	default:
		return storageFailure(op, err)
	}

	s.log.Info("transfer completed",
		slog.Int64("user_id", t.UserID),
		slog.Int64("from", t.FromID),
		slog.Int64("to", t.ToID),
		slog.String("amount", t.Amount.String()),
	)

	return nil
}

func validateTransfer(t models.Transfer) error {
	switch {
	case t.FromID <= 0 || t.ToID <= 0:
		return invalid("source and destination accounts are required")
	case !t.Amount.IsPositive():
		return invalid("amount must be positive")
	case t.FromID == t.ToID:
		return invalid("cannot transfer to the same account")
	case utf8.RuneCountInString(t.Description) > maxDescriptionLen:
		return invalid("description is too long")
	}

	return nil
}
