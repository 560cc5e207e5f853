package services

import (
	"chispa/auth"
	"chispa/domain"
	chisperrors "chispa/errors"
	"chispa/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*AccountService, *auth.TokenManager) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens := auth.NewTokenManager("test-key", time.Hour)
	return NewAccountService(repositories.NewUserRepository(db), tokens), tokens
}

func Test_Register_Issues_Basic_Tier_Token(t *testing.T) {
	req := require.New(t)
	accounts, tokens := newAccountService(t)

	token, err := accounts.Register("ana@example.com", "Str0ngPass")
	req.NoError(err)

	session, err := tokens.Verify(token)
	req.NoError(err)
	req.Equal(domain.TierBasic, session.Tier)
	req.NotEmpty(session.UserID)
}

func Test_Register_Rejects_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	accounts, _ := newAccountService(t)

	_, err := accounts.Register("ana@example.com", "Str0ngPass")
	req.NoError(err)

	_, err = accounts.Register("ana@example.com", "0therPassW")
	req.ErrorIs(err, chisperrors.ErrUserAlreadyExists)
}

func Test_Register_Rejects_Weak_Password(t *testing.T) {
	accounts, _ := newAccountService(t)

	_, err := accounts.Register("ana@example.com", "weakpassword")
	require.ErrorIs(t, err, chisperrors.ErrInvalidPassword)
}

func Test_Login_Roundtrip(t *testing.T) {
	req := require.New(t)
	accounts, tokens := newAccountService(t)

	_, err := accounts.Register("ana@example.com", "Str0ngPass")
	req.NoError(err)

	token, err := accounts.Login("ana@example.com", "Str0ngPass")
	req.NoError(err)

	session, err := tokens.Verify(token)
	req.NoError(err)
	req.Equal(domain.TierBasic, session.Tier)
}

func Test_Login_Wrong_Password_Or_Unknown_User(t *testing.T) {
	req := require.New(t)
	accounts, _ := newAccountService(t)

	_, err := accounts.Register("ana@example.com", "Str0ngPass")
	req.NoError(err)

	_, err = accounts.Login("ana@example.com", "Wr0ngPass")
	req.ErrorIs(err, chisperrors.ErrInvalidCredentials)

	_, err = accounts.Login("ghost@example.com", "Str0ngPass")
	req.ErrorIs(err, chisperrors.ErrInvalidCredentials)
}

func Test_Upgrade_Applies_On_Next_Login(t *testing.T) {
	req := require.New(t)
	accounts, tokens := newAccountService(t)

	token, err := accounts.Register("ana@example.com", "Str0ngPass")
	req.NoError(err)
	session, err := tokens.Verify(token)
	req.NoError(err)

	req.NoError(accounts.Upgrade(session.UserID, domain.TierVIP))

	token, err = accounts.Login("ana@example.com", "Str0ngPass")
	req.NoError(err)
	session, err = tokens.Verify(token)
	req.NoError(err)
	req.Equal(domain.TierVIP, session.Tier)
}
