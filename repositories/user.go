//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chispa/domain"
	chisperrors "chispa/errors"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(id string) (User, error)
	SetTier(id string, tier domain.Tier) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the account record. Tier is owned here: the chat module only ever
// reads it, through the session.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Tier         domain.Tier
	CreatedAt    time.Time
}

type userDoc struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Tier         string `json:"tier"`
	CreatedAt    int64  `json:"created_at"` // unix seconds
}

// CreateUser persists a new account under both an email key and an id key.
// Every account starts on the basic tier, upgrades go through SetTier.
func (u UserRepository) CreateUser(email, hashedPassword string) (string, error) {
	doc := userDoc{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		Tier:         string(domain.TierBasic),
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("user:" + email)
		if _, err := txn.Get(emailKey); err == nil {
			return chisperrors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, data); err != nil {
			return err
		}
		return txn.Set([]byte("userid:"+doc.ID), data)
	})
	return doc.ID, err
}

func (u UserRepository) GetUserByEmail(email string) (User, error) {
	return u.get("user:" + email)
}

func (u UserRepository) GetUserByID(id string) (User, error) {
	return u.get("userid:" + id)
}

// SetTier rewrites the account under both keys with the new tier.
func (u UserRepository) SetTier(id string, tier domain.Tier) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("userid:" + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return chisperrors.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		var doc userDoc
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return err
		}
		doc.Tier = string(tier)
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err = txn.Set([]byte("userid:"+doc.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte("user:"+doc.Email), data)
	})
}

func (u UserRepository) get(key string) (User, error) {
	var doc userDoc
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return chisperrors.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Tier:         domain.ParseTier(doc.Tier),
		CreatedAt:    time.Unix(doc.CreatedAt, 0).UTC(),
	}, nil
}
