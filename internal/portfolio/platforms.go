// Package portfolio manages where a user's funds live: trading platforms,
// the balance ledger between them, and net worth across currencies.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
	"trading-journal/pkg/id"
)

// PlatformInput creates a platform.
type PlatformInput struct {
	Name     string              `json:"name"`
	Type     models.PlatformType `json:"type"`
	Currency models.Currency     `json:"currency"`
}

// PlatformUpdate changes the non-nil fields of a platform.
type PlatformUpdate struct {
	Name     *string              `json:"name,omitempty"`
	Type     *models.PlatformType `json:"type,omitempty"`
	Currency *models.Currency     `json:"currency,omitempty"`
}

// Platforms manages a user's trading platforms.
type Platforms struct {
	store  store.PlatformStore
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

// NewPlatforms creates a platform service.
func NewPlatforms(s store.PlatformStore, logger zerolog.Logger) *Platforms {
	return &Platforms{
		store:  s,
		now:    time.Now,
		newID:  id.New,
		logger: logging.WithOperation(logger, "platforms"),
	}
}

// Create adds a platform for userID. Currency defaults to USD.
func (p *Platforms) Create(ctx context.Context, userID string, in PlatformInput) (*models.Platform, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", in.Name, "is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.NewValidationError("type", in.Type, "must be exchange, broker or wallet")
	}
	cur := currency.Normalize(in.Currency)
	if cur == "" {
		cur = models.DefaultCurrency
	}

	platform := &models.Platform{
		ID:        p.newID(),
		UserID:    userID,
		Name:      name,
		Type:      in.Type,
		Currency:  cur,
		CreatedAt: p.now(),
	}
	if err := p.store.InsertPlatform(ctx, platform); err != nil {
		return nil, fmt.Errorf("failed to save platform: %w", err)
	}

	logger := logging.WithUser(p.logger, userID)
	logger.Info().
		Str("platform_id", platform.ID).
		Str("name", platform.Name).
		Str("currency", string(platform.Currency)).
		Msg("Platform created")
	return platform, nil
}

// Get returns one platform owned by userID.
func (p *Platforms) Get(ctx context.Context, userID, platformID string) (*models.Platform, error) {
	platform, err := p.store.GetPlatform(ctx, userID, platformID)
	if err != nil {
		return nil, mapNotFound(err, "platform", platformID)
	}
	return platform, nil
}

// GetPlatform resolves a platform reference for the trade lifecycle. It
// returns store.ErrNotFound unchanged.
func (p *Platforms) GetPlatform(ctx context.Context, userID, platformID string) (*models.Platform, error) {
	return p.store.GetPlatform(ctx, userID, platformID)
}

// List returns userID's platforms, newest first.
func (p *Platforms) List(ctx context.Context, userID string) ([]models.Platform, error) {
	platforms, err := p.store.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	return platforms, nil
}

// ListPlatforms is List under the name the analytics service expects.
func (p *Platforms) ListPlatforms(ctx context.Context, userID string) ([]models.Platform, error) {
	return p.List(ctx, userID)
}

// Update applies the set fields of upd.
func (p *Platforms) Update(ctx context.Context, userID, platformID string, upd PlatformUpdate) (*models.Platform, error) {
	platform, err := p.Get(ctx, userID, platformID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", *upd.Name, "cannot be empty")
		}
		platform.Name = name
	}
	if upd.Type != nil {
		if !upd.Type.Valid() {
			return nil, apperrors.NewValidationError("type", *upd.Type, "must be exchange, broker or wallet")
		}
		platform.Type = *upd.Type
	}
	if upd.Currency != nil {
		if cur := currency.Normalize(*upd.Currency); cur != "" {
			platform.Currency = cur
		}
	}

	if err := p.store.UpdatePlatform(ctx, platform); err != nil {
		return nil, mapNotFound(err, "platform", platformID)
	}
	return platform, nil
}

// Delete removes a platform. Trades and transactions that reference it are
// kept and reported under an unknown platform.
func (p *Platforms) Delete(ctx context.Context, userID, platformID string) error {
	if err := p.store.DeletePlatform(ctx, userID, platformID); err != nil {
		return mapNotFound(err, "platform", platformID)
	}
	logger := logging.WithUser(p.logger, userID)
	logger.Info().Str("platform_id", platformID).Msg("Platform deleted")
	return nil
}

func mapNotFound(err error, resource, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return fmt.Errorf("%s %s: %w", resource, id, err)
}
