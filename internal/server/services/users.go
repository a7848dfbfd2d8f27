// Package services contains server-side business logic. This file implements
// UserService: registration, login and session-token issuance, plus the user
// lookup the auth gate and the dispatcher resolve identities against.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/D-Abramoc/chatrelay/internal/dbx"
	"github.com/D-Abramoc/chatrelay/internal/server/auth"
	"github.com/D-Abramoc/chatrelay/internal/server/config"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides account operations:
//   - Register: create users with a bcrypt password hash
//   - Login: verify credentials and mint a session token
//   - GetByID: resolve an identity for the auth gate and the dispatcher
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user. The password is stored as a bcrypt hash, never
// in plaintext. A duplicate email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, repeatPassword string, telegramID *int64) (*models.User, error) {
	if password != repeatPassword {
		return nil, common.ErrorPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Email: email, Password: string(hash)}
	if telegramID != nil {
		user.TelegramID = sql.NullInt64{Int64: *telegramID, Valid: true}
	}

	// Existence check and insert run in one transaction; the unique index on
	// email still backstops concurrent registrations.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login verifies the password against the stored bcrypt hash and, on success,
// returns a signed session token. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetByID resolves a user id against the store.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByID(ctx, id)
}
