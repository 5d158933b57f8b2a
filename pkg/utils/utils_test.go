package utils

import (
	"testing"
	"time"

	appErrors "precast-tracker/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()

	token, err := GenerateToken(id, "secret", "precast-tracker", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, id.String(), claims.Subject)

	_, err = ValidateToken(token, "other-secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestTokenRejections(t *testing.T) {
	expired, err := GenerateToken(uuid.New(), "secret", "precast-tracker", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: uuid.New()})
	signed, err := noExpiry.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed, "secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	nilUser, err := GenerateToken(uuid.Nil, "secret", "precast-tracker", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(nilUser, "secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	_, err = ValidateToken("not.a.token", "secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestCustomValidators(t *testing.T) {
	type payload struct {
		Type  string `validate:"element_type"`
		Plate string `validate:"truck_registration"`
	}

	tests := []struct {
		name  string
		in    payload
		valid bool
	}{
		{"wall", payload{"wall", "AB 123"}, true},
		{"filigran with dash plate", payload{"filigran", "KT-X45"}, true},
		{"unknown type", payload{"roof", "AB 123"}, false},
		{"lower case plate", payload{"beam", "ab 123"}, false},
		{"plate too short", payload{"beam", "A1"}, false},
		{"plate trailing dash", payload{"beam", "AB12-"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Jón Jónsson", SanitizeString("  Jón Jónsson "))
	assert.Equal(t, "&lt;b&gt;V-101&lt;/b&gt;", SanitizeString("<b>V-101</b>"))
	assert.Equal(t, "line one\nline two", SanitizeText("line one\nline two\x00"))

	assert.Nil(t, SanitizeOptional(nil))
	blank := "   "
	assert.Nil(t, SanitizeOptional(&blank))
	note := " crane at gate 2 "
	require.NotNil(t, SanitizeOptional(&note))
	assert.Equal(t, "crane at gate 2", *SanitizeOptional(&note))

	assert.Equal(t, "AB 123", NormalizeRegistration("  ab   123 "))
}
