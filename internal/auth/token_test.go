package auth

import (
	"testing"

	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:       "test-secret",
		Issuer:       "cps-test",
		AccessTTLMin: 15,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager(testJWTConfig())

	token, err := manager.Generate(42, model.UserRoleCreator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, model.UserRoleCreator, claims.Role)
	assert.Equal(t, "cps-test", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	manager := NewTokenManager(testJWTConfig())
	token, err := manager.Generate(1, model.UserRoleBacker)
	require.NoError(t, err)

	other := NewTokenManager(config.JWTConfig{
		Secret:       "other-secret",
		Issuer:       "cps-test",
		AccessTTLMin: 15,
	})
	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	issuerA := NewTokenManager(testJWTConfig())
	cfg := testJWTConfig()
	cfg.Issuer = "someone-else"
	issuerB := NewTokenManager(cfg)

	token, err := issuerB.Generate(1, model.UserRoleBacker)
	require.NoError(t, err)

	_, err = issuerA.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTTLMin = -1
	manager := NewTokenManager(cfg)

	token, err := manager.Generate(1, model.UserRoleBacker)
	require.NoError(t, err)

	_, err = manager.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	manager := NewTokenManager(testJWTConfig())
	_, err := manager.Parse("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
