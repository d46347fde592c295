package httpapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndValidate(t *testing.T) {
	a := NewAuth("secret")
	token, err := a.Mint("pos-7", time.Hour)
	require.NoError(t, err)

	claims, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "pos-7", claims.DeviceID)
	assert.Equal(t, "pos-7", claims.Subject)
}

func TestValidateRejectsExpired(t *testing.T) {
	a := NewAuth("secret")
	token, err := a.Mint("pos-7", -time.Minute)
	require.NoError(t, err)

	_, err = a.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := NewAuth("secret")
	token, err := a.Mint("pos-7", time.Hour)
	require.NoError(t, err)

	_, err = NewAuth("different").Validate(token)
	assert.Error(t, err)
}

func TestValidateRequiresDeviceClaim(t *testing.T) {
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewAuth("secret").Validate(token)
	assert.Error(t, err)
}
