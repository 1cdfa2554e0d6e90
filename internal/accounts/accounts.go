// Package accounts registers journal owners and verifies their credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
	"trading-journal/pkg/id"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 10

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or
// a wrong password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)

// RegisterInput creates an account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate changes the non-nil profile fields.
type ProfileUpdate struct {
	Name            *string          `json:"name,omitempty"`
	Username        *string          `json:"username,omitempty"`
	Bio             *string          `json:"bio,omitempty"`
	Avatar          *string          `json:"avatar,omitempty"`
	DefaultCurrency *models.Currency `json:"defaultCurrency,omitempty"`
	IsPublic        *bool            `json:"isPublic,omitempty"`
}

// Service manages accounts.
type Service struct {
	users  store.UserStore
	now    func() time.Time
	newID  func() string
	cost   int
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides the hash cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an account service.
func NewService(users store.UserStore, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		users:  users,
		now:    time.Now,
		newID:  id.New,
		cost:   BcryptCost,
		logger: logging.WithOperation(logger, "accounts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a private account with USD as the default currency.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	switch {
	case name == "":
		return nil, apperrors.NewValidationError("name", in.Name, "is required")
	case email == "":
		return nil, apperrors.NewValidationError("email", in.Email, "is required")
	case !strings.Contains(email, "@"):
		return nil, apperrors.NewValidationError("email", in.Email, "is not an email address")
	case in.Password == "":
		return nil, apperrors.NewValidationError("password", "", "is required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("email", email, "user already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password", "", "must be at most 72 bytes")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:              s.newID(),
		Name:            name,
		Email:           email,
		PasswordHash:    string(hash),
		DefaultCurrency: models.DefaultCurrency,
		IsPublic:        false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperrors.NewValidationError("email", email, "user already exists")
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger := logging.WithUser(s.logger, user.ID)
	logger.Info().Str("email", email).Msg("User registered")
	return user, nil
}

// Authenticate returns the user whose credentials match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the account for userID.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the set fields of upd. A non-empty username must
// match ^[a-zA-Z0-9_-]{3,30}$ and is stored lower-cased; it must not be
// taken by another account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username != "" {
			if !usernamePattern.MatchString(username) {
				return nil, apperrors.NewValidationError("username", username,
					"must be 3-30 characters of letters, numbers, underscores and hyphens")
			}
			username = strings.ToLower(username)
			other, err := s.users.GetUserByUsername(ctx, username)
			switch {
			case err == nil && other.ID != userID:
				return nil, apperrors.NewValidationError("username", username, "is already taken")
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return nil, fmt.Errorf("failed to look up username: %w", err)
			}
		}
		user.Username = username
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", *upd.Name, "cannot be empty")
		}
		user.Name = name
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.Avatar != nil {
		user.Avatar = *upd.Avatar
	}
	if upd.DefaultCurrency != nil {
		if cur := currency.Normalize(*upd.DefaultCurrency); cur != "" {
			user.DefaultCurrency = cur
		}
	}
	if upd.IsPublic != nil {
		user.IsPublic = *upd.IsPublic
	}
	user.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperrors.NewValidationError("username", user.Username, "is already taken")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
