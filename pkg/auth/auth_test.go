package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken(42, "mgr.jane", RoleManager, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "mgr.jane", claims.Username)
	assert.Equal(t, RoleManager, claims.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken(1, "tech", RoleTechnician, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := GenerateToken(1, "tech", RoleTechnician, time.Hour)
	require.NoError(t, err)

	SetSecret("secret-b")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer", "Token abc", "Bearer a b"} {
		_, err := ParseBearer(header)
		assert.Error(t, err, header)
	}
}

func TestActorContext(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{UserID: 7, Username: "ops", Role: RoleAdmin})

	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.True(t, actor.IsManager())

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)
}
