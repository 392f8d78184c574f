package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/logging"
	"github.com/tundesanni/paylite/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type userWriter interface {
	Create(ctx context.Context, tx *sql.Tx, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type walletWriter interface {
	Create(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error
}

// AuthService is the identity boundary: it mints users and their wallets.
// The ledger core treats both as given and never creates them itself.
type AuthService struct {
	users   userWriter
	wallets walletWriter
	db      *sql.DB
}

func NewAuthService(users userWriter, wallets walletWriter, db *sql.DB) *AuthService {
	return &AuthService{users: users, wallets: wallets, db: db}
}

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register creates the user and their single zero-balance wallet in one
// transaction. A user without a wallet is never observable.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	log := logging.FromContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    user.ID,
		Balance:   decimal.Zero,
		Currency:  domain.CurrencyINR,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Register: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.Create(ctx, tx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			if strings.Contains(repository.UniqueConstraint(err), "phone") {
				return nil, fmt.Errorf("Register: %w", domain.ErrPhoneTaken)
			}
			return nil, fmt.Errorf("Register: %w", domain.ErrEmailTaken)
		}
		return nil, fmt.Errorf("Register: %w", err)
	}
	if err := s.wallets.Create(ctx, tx, wallet); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Register: commit: %w", err)
	}

	log.Info("user registered", "user_id", user.ID, "wallet_id", wallet.ID)
	return user, nil
}

// Authenticate checks credentials and returns the user. Unknown email and
// wrong password are deliberately the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Authenticate: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrUserNotFound)
	}

	return user, nil
}
