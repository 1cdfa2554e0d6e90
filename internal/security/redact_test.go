package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdefg", "ab*****"},
		{"fca_live_0123456789", "fca_***********6789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskCredential(tt.in), tt.in)
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"url with password", "postgres://journal:hunter2@db:5432/journal?sslmode=disable", "postgres://journal:****@db:5432/journal?sslmode=disable"},
		{"url without password", "postgres://journal@db/journal", "postgres://journal@db/journal"},
		{"key value", "host=db user=journal password=hunter2 dbname=journal", "host=db user=journal password=hu***** dbname=journal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactDSN(tt.in))
		})
	}
}

func TestMaskSecrets(t *testing.T) {
	in := `GET /v1/latest?apikey=fca_live_0123456789&currencies=IDR failed: dial postgres://u:pw@db/x`
	out := MaskSecrets(in)
	assert.NotContains(t, out, "fca_live_0123456789")
	assert.NotContains(t, out, ":pw@")
	assert.Contains(t, out, "currencies=IDR")
	assert.Contains(t, out, "postgres://u:****@db/x")
}

func TestIsSensitiveField(t *testing.T) {
	assert.True(t, IsSensitiveField("API_KEY"))
	assert.True(t, IsSensitiveField("postgres_dsn"))
	assert.False(t, IsSensitiveField("base_url"))
}
