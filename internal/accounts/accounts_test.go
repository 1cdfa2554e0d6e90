package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/store/memory"
)

var testNow = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

func newService() *Service {
	return NewService(memory.New(), zerolog.Nop(),
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return testNow }))
}

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Dewi", Email: " Dewi@Example.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "dewi@example.com", u.Email)
	assert.Equal(t, models.USD, u.DefaultCurrency)
	assert.False(t, u.IsPublic)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
	assert.Equal(t, testNow, u.CreatedAt)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "dewi@example.com", Password: "x"})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestRegister_Validation(t *testing.T) {
	svc := newService()
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"no name", RegisterInput{Email: "a@b.c", Password: "p"}, "name"},
		{"no email", RegisterInput{Name: "A", Password: "p"}, "email"},
		{"not an email", RegisterInput{Name: "A", Email: "nope", Password: "p"}, "email"},
		{"no password", RegisterInput{Name: "A", Email: "a@b.c"}, "password"},
		{"long password", RegisterInput{Name: "A", Email: "a@b.c", Password: strings.Repeat("x", 73)}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Name: "Dewi", Email: "dewi@example.com", Password: "hunter22"})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "DEWI@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "dewi@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	a, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "p"})
	require.NoError(t, err)
	b, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "p"})
	require.NoError(t, err)

	public := true
	idr := models.Currency("idr")
	u, err := svc.UpdateProfile(ctx, a.ID, ProfileUpdate{
		Username:        strPtr("Trader_One"),
		Bio:             strPtr("swing trader"),
		DefaultCurrency: &idr,
		IsPublic:        &public,
	})
	require.NoError(t, err)
	assert.Equal(t, "trader_one", u.Username)
	assert.Equal(t, "swing trader", u.Bio)
	assert.Equal(t, models.IDR, u.DefaultCurrency)
	assert.True(t, u.IsPublic)
	assert.Equal(t, "A", u.Name, "unset fields are kept")

	// Re-saving your own username is allowed.
	_, err = svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Username: strPtr("TRADER_ONE")})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, b.ID, ProfileUpdate{Username: strPtr("trader_one")})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)

	for _, bad := range []string{"ab", "has space", "dots.not.allowed", strings.Repeat("x", 31)} {
		_, err := svc.UpdateProfile(ctx, b.ID, ProfileUpdate{Username: strPtr(bad)})
		assert.ErrorIs(t, err, apperrors.ErrInputValidation, bad)
	}

	_, err = svc.UpdateProfile(ctx, "missing", ProfileUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
