package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/lib/jwt"
	"github.com/IlyasAtabaev731/kodbank/internal/lib/money"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *APIServer) registerHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = models.NormalizeEmail(req.Email)
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Name, a valid email and password are required.")
			return
		}

		user, err := s.bank.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		s.writeAuthResponse(w, r, http.StatusCreated, user)
	}
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		user, err := s.bank.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		s.writeAuthResponse(w, r, http.StatusOK, user)
	}
}

func (s *APIServer) writeAuthResponse(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := jwt.NewToken(user, string(s.jwtSecret), s.tokenTTL())
	if err != nil {
		s.writeBankError(w, r, err)
		return
	}

	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

func (s *APIServer) tokenTTL() time.Duration {
	if ttl := s.config.Auth.TokenTTL; ttl > 0 {
		return ttl
	}
	return 7 * 24 * time.Hour
}

func (s *APIServer) profileHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.bank.Profile(r.Context(), userID(r))
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

func (s *APIServer) accountsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.bank.Accounts(r.Context(), userID(r))
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
	}
}

func (s *APIServer) transactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || accountID <= 0 {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}

		transactions, err := s.bank.Transactions(r.Context(), userID(r), accountID)
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
	}
}

// TransferRequest accepts account ids as numbers or numeric strings.
type TransferRequest struct {
	FromAccountID json.Number  `json:"fromAccountId" validate:"required"`
	ToAccountID   json.Number  `json:"toAccountId" validate:"required"`
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
}

func (s *APIServer) transferHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransferRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid transfer data")
			return
		}

		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid transfer data")
			return
		}

		fromID, errFrom := strconv.ParseInt(req.FromAccountID.String(), 10, 64)
		toID, errTo := strconv.ParseInt(req.ToAccountID.String(), 10, 64)
		if errFrom != nil || errTo != nil {
			writeError(w, http.StatusBadRequest, "Invalid transfer data")
			return
		}

		err := s.bank.Transfer(r.Context(), models.Transfer{
			UserID:      userID(r),
			FromID:      fromID,
			ToID:        toID,
			Amount:      req.Amount,
			Description: req.Description,
		})
		if err != nil {
			s.writeBankError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "Transfer successful"})
	}
}

func (s *APIServer) healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": s.config.AppName})
	}
}
