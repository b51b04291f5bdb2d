package auth_test

import (
	"testing"
	"time"

	"collabolab/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	userID := uuid.New()

	token, err := tokens.Generate(userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedUserID, err := tokens.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	_, err := tokens.Parse("invalid-token")

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	issued, _ := auth.NewTokenManager("other-secret", time.Hour).Generate(uuid.New())

	_, err := auth.NewTokenManager(testSecret, time.Hour).Parse(issued)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte(testSecret))

	_, err := auth.NewTokenManager(testSecret, time.Hour).Parse(expiredToken)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, _ := token.SignedString([]byte(testSecret))

	_, err := auth.NewTokenManager(testSecret, time.Hour).Parse(signed)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingClaims(t *testing.T) {
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString([]byte(testSecret))

	_, err := auth.NewTokenManager(testSecret, time.Hour).Parse(tokenWithoutUserID)

	assert.Error(t, err)
	assert.Equal(t, "invalid claims", err.Error())
}

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := auth.HashPassword("s3cret")
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)

	assert.True(t, auth.CheckPassword(hashed, "s3cret"))
	assert.False(t, auth.CheckPassword(hashed, "wrong"))
}
