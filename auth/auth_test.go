package auth

import (
	"chispa/domain"
	chisperrors "chispa/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_HashPassword_Roundtrip(t *testing.T) {
	req := require.New(t)

	encoded, err := HashPassword("Correct1Horse")
	req.NoError(err)
	req.Contains(encoded, "$argon2id$")

	ok, err := ComparePassword(encoded, "Correct1Horse")
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword(encoded, "Wrong1Horse")
	req.NoError(err)
	req.False(ok)
}

func Test_ComparePassword_Rejects_Malformed_Hash(t *testing.T) {
	_, err := ComparePassword("not-a-hash", "whatever")
	require.ErrorIs(t, err, chisperrors.ErrInvalidCredentials)
}

func Test_Token_Roundtrip_Carries_Tier(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-key", time.Hour)

	token, err := manager.Issue("user-1", domain.TierVIP)
	req.NoError(err)

	session, err := manager.Verify(token)
	req.NoError(err)
	req.Equal("user-1", session.UserID)
	req.Equal(domain.TierVIP, session.Tier)
}

func Test_Token_Wrong_Key_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := NewTokenManager("key-a", time.Hour).Issue("user-1", domain.TierBasic)
	req.NoError(err)

	_, err = NewTokenManager("key-b", time.Hour).Verify(token)
	req.ErrorIs(err, chisperrors.ErrInvalidCredentials)
}

func Test_Token_Expired_Rejected(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-key", -time.Minute)

	token, err := manager.Issue("user-1", domain.TierBasic)
	req.NoError(err)

	_, err = manager.Verify(token)
	req.ErrorIs(err, chisperrors.ErrInvalidCredentials)
}

func Test_Token_Unknown_Tier_Degrades_To_Basic(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-key", time.Hour)

	token, err := manager.Issue("user-1", domain.Tier("platinum"))
	req.NoError(err)

	session, err := manager.Verify(token)
	req.NoError(err)
	req.Equal(domain.TierBasic, session.Tier)
}

func Test_ValidateRegister(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateRegister(RegisterInput{Email: "ana@example.com", Password: "Str0ngPass"}))
	req.Error(ValidateRegister(RegisterInput{Email: "not-an-email", Password: "Str0ngPass"}))
	req.Error(ValidateRegister(RegisterInput{Email: "ana@example.com", Password: "Sh0rt"}))
	req.ErrorIs(
		ValidateRegister(RegisterInput{Email: "ana@example.com", Password: "alllowercase1"}),
		chisperrors.ErrInvalidPassword,
	)
}
