package util

import (
	"resume_optimizer_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	return &model.User{
		BaseModel: model.BaseModel{ID: 7},
		Email:     "member@example.com",
		Role:      model.Member,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.Member, claims.Role)
	assert.Equal(t, "member@example.com", claims.Email)
}

func TestParseJWTRejectsBadTokens(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", token},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.token, "other-secret")
			assert.Error(t, err)
		})
	}
}

func TestParseJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}
