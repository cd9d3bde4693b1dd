// Package users manages accounts: registration, password login and the
// per-user TMDB key.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/crypto"
	"github.com/baing/baing/internal/database/sqlc"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidInput       = errors.New("invalid account details")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	HasTMDBKey bool      `json:"has_tmdb_key"`
	CreatedAt  time.Time `json:"created_at"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateInput changes the fields that are non-nil. An empty TMDBAPIKey
// clears the stored key.
type UpdateInput struct {
	Name       *string `json:"name,omitempty"`
	TMDBAPIKey *string `json:"tmdb_api_key,omitempty"`
}

// SpecialProvisioner creates the reserved collections for a user.
type SpecialProvisioner interface {
	EnsureSpecial(ctx context.Context, ownerID int64) error
}

type Service struct {
	queries     *sqlc.Queries
	secrets     *crypto.SecretStore
	collections SpecialProvisioner
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewService(queries *sqlc.Queries, secrets *crypto.SecretStore, collections SpecialProvisioner, logger zerolog.Logger) *Service {
	return &Service{
		queries:     queries,
		secrets:     secrets,
		collections: collections,
		validate:    validator.New(),
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

// Register creates the account and its liked, disliked and skipped
// collections.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	if _, err := s.queries.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.collections.EnsureSpecial(ctx, row.ID); err != nil {
		return nil, fmt.Errorf("provision collections: %w", err)
	}

	s.logger.Info().Int64("userId", row.ID).Msg("User registered")
	return toUser(row), nil
}

// Authenticate checks the password and returns the account. It also
// restores any special collection the user is missing.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	row, err := s.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := crypto.CheckPassword(row.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.collections.EnsureSpecial(ctx, row.ID); err != nil {
		return nil, fmt.Errorf("provision collections: %w", err)
	}
	return toUser(row), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUser(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		if _, err := s.queries.UpdateUserName(ctx, sqlc.UpdateUserNameParams{Name: name, ID: id}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("update name: %w", err)
		}
	}

	if input.TMDBAPIKey != nil {
		stored := ""
		if key := strings.TrimSpace(*input.TMDBAPIKey); key != "" {
			enc, err := s.secrets.Encrypt(key)
			if err != nil {
				return nil, fmt.Errorf("encrypt tmdb key: %w", err)
			}
			stored = enc
		}
		if err := s.queries.UpdateUserTMDBKey(ctx, sqlc.UpdateUserTMDBKeyParams{TmdbApiKey: stored, ID: id}); err != nil {
			return nil, fmt.Errorf("update tmdb key: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// TMDBKey returns the user's decrypted TMDB key, or "" when none is set.
func (s *Service) TMDBKey(ctx context.Context, userID int64) (string, error) {
	row, err := s.queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if row.TmdbApiKey == "" {
		return "", nil
	}
	return s.secrets.Decrypt(row.TmdbApiKey)
}

func toUser(row *sqlc.User) *User {
	return &User{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email,
		HasTMDBKey: row.TmdbApiKey != "",
		CreatedAt:  row.CreatedAt,
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return strings.Join(parts, ", ")
}
