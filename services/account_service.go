package services

import (
	"chispa/auth"
	"chispa/domain"
	chisperrors "chispa/errors"
	"chispa/repositories"
	"fmt"
)

type IAccountService interface {
	Register(email, password string) (string, error)
	Login(email, password string) (string, error)
	Upgrade(userID string, tier domain.Tier) error
}

// AccountService owns credentials and tier assignment. The chat pipeline only
// ever sees the tier through the session token this service issues.
type AccountService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAccountService(users repositories.IUserRepository, tokens *auth.TokenManager) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

// Register validates, hashes and persists a new account, then issues its
// first session token. New accounts always start on the basic tier.
func (s *AccountService) Register(email, password string) (string, error) {
	input := auth.RegisterInput{Email: email, Password: password}

	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(input); err != nil {
		return "", err
	}

	// Hashing happens here so the repository never sees a plain password.
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.users.CreateUser(email, hashed)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(userID, domain.TierBasic)
}

// Login checks the credentials and issues a token carrying the account's
// current tier. Lookup and comparison failures collapse into the same error
// to prevent user enumeration.
func (s *AccountService) Login(email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return "", chisperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(user.PasswordHash, password)
	if err != nil || !match {
		return "", chisperrors.ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Tier)
}

// Upgrade moves the account to another tier. Existing tokens keep their old
// tier until they expire, the change applies on the next login.
func (s *AccountService) Upgrade(userID string, tier domain.Tier) error {
	return s.users.SetTier(userID, tier)
}
