// Package auth issues and verifies the bearer tokens the API runs on.
// Passwords are stored as bcrypt hashes; tokens are HS256 JWTs carrying the
// user id as subject and the role as a custom claim.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravchenko/cardvault/internal/repos/users"
	pgusers "github.com/mkravchenko/cardvault/internal/repos/users/postgres"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUserData    = errors.New("invalid user data")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users    users.Users
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func New(db *sql.DB, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		users:    pgusers.New(db),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates a new account holder with the given role.
func (s *Service) Register(ctx context.Context, username, password string, role users.Role) (*users.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalidUserData)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrInvalidUserData)
	}
	if role != users.RoleUser && role != users.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrInvalidUserData)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &users.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	err = s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Login verifies the credentials and returns a signed token. Unknown user and
// wrong password are reported identically.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}

		return "", fmt.Errorf("find user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// VerifyToken parses a bearer token and returns the caller identity it
// asserts.
func (s *Service) VerifyToken(tokenString string) (uuid.UUID, users.Role, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return id, users.Role(claims.Role), nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
// Called once at startup so a fresh deployment has a way in.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	_, err = s.Register(ctx, username, password, users.RoleAdmin)
	if err != nil && !errors.Is(err, users.ErrUsernameTaken) {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	return nil
}
