package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baing/baing/internal/database/sqlc"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	issuer          = "baing"

	//nolint:gosec // setting name, not a credential
	jwtSecretSettingKey = "jwt_secret"
)

// SettingsStore persists the generated signing secret.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (*sqlc.Setting, error)
	SetSetting(ctx context.Context, arg sqlc.SetSettingParams) error
}

// Service signs and validates HS256 session tokens.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewService uses jwtSecret when given, otherwise loads or generates one in settings.
func NewService(ctx context.Context, settings SettingsStore, jwtSecret string, ttl time.Duration) (*Service, error) {
	secret := []byte(jwtSecret)
	if len(secret) == 0 {
		var err error
		secret, err = loadOrGenerateSecret(ctx, settings)
		if err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Service{jwtSecret: secret, ttl: ttl, now: time.Now}, nil
}

func loadOrGenerateSecret(ctx context.Context, settings SettingsStore) ([]byte, error) {
	setting, err := settings.GetSetting(ctx, jwtSecretSettingKey)
	switch {
	case err == nil && setting.Value != "":
		secret, decErr := hex.DecodeString(setting.Value)
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode stored JWT secret: %w", decErr)
		}
		return secret, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to load JWT secret: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	if err := settings.SetSetting(ctx, sqlc.SetSettingParams{
		Key:   jwtSecretSettingKey,
		Value: hex.EncodeToString(secret),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist JWT secret: %w", err)
	}
	return secret, nil
}

// KeyMaterial returns the signing secret for deriving other server keys
// when no dedicated secret is configured.
func (s *Service) KeyMaterial() string {
	return string(s.jwtSecret)
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a token for the user.
func (s *Service) GenerateToken(userID int64, email, name string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and verifies a token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
