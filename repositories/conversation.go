//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"chispa/domain"
	chisperrors "chispa/errors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	EnsureConversation(a, b string) (domain.Conversation, error)
	Get(conversationID string) (domain.Conversation, error)
	ListByMember(userID string) ([]domain.Conversation, error)
	TouchConversation(conversationID, preview, senderID string, at time.Time) error
}

// ConversationRepository keeps three families of keys in BadgerDB:
//
//	conv:{id}                                  -> conversation document (JSON)
//	convpair:{loMember}:{hiMember}             -> conversation id, canonical pair lookup
//	convidx:{member}:{inverted_updated_at}:{id} -> conversation id, per-member listing
//
// The index timestamp is inverted (MaxInt64 - unixnano) so a plain forward
// prefix scan yields conversations most recently updated first, the order the
// conversation list renders in.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

type conversationDoc struct {
	ID           string    `json:"id"`
	Members      [2]string `json:"members"`
	LastMessage  string    `json:"last_message"`
	LastSenderID string    `json:"last_sender_id"`
	UpdatedAt    int64     `json:"updated_at"` // unix nanoseconds, UTC
}

func convKey(id string) []byte {
	return []byte("conv:" + id)
}

func pairKey(a, b string) []byte {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return []byte(fmt.Sprintf("convpair:%s:%s", lo, hi))
}

func memberIndexKey(member string, updatedAt time.Time, id string) []byte {
	inverted := math.MaxInt64 - updatedAt.UnixNano()
	return []byte(fmt.Sprintf("convidx:%s:%019d:%s", member, inverted, id))
}

// EnsureConversation returns the conversation between two users, creating it
// implicitly on first contact. Creation and index writes happen in a single
// transaction so a conversation is always listable by both members.
func (r ConversationRepository) EnsureConversation(a, b string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if err == nil {
			var id string
			if err = item.Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}
			conversation, err = getConversation(txn, id)
			return err
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		now := time.Now().UTC()
		doc := conversationDoc{
			ID:        uuid.NewString(),
			Members:   [2]string{a, b},
			UpdatedAt: now.UnixNano(),
		}
		bytes, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err = txn.Set(convKey(doc.ID), bytes); err != nil {
			return err
		}
		if err = txn.Set(pairKey(a, b), []byte(doc.ID)); err != nil {
			return err
		}
		for _, member := range doc.Members {
			if err = txn.Set(memberIndexKey(member, now, doc.ID), []byte(doc.ID)); err != nil {
				return err
			}
		}
		r.log.Debug("Conversation created", "conversation_id", doc.ID)
		conversation = toConversation(doc)
		return nil
	})
	return conversation, err
}

func (r ConversationRepository) Get(conversationID string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = getConversation(txn, conversationID)
		return err
	})
	return conversation, err
}

// ListByMember returns every conversation the user participates in, most
// recently updated first, via a forward scan of the member index.
func (r ConversationRepository) ListByMember(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("convidx:%s:", userID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}
			conversation, err := getConversation(txn, id)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	return conversations, err
}

// TouchConversation refreshes the denormalized preview fields after a send.
// The stale member index keys are replaced in the same transaction, otherwise
// a conversation would appear twice in a member's listing.
func (r ConversationRepository) TouchConversation(conversationID, preview, senderID string, at time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		doc, err := getConversationDoc(txn, conversationID)
		if err != nil {
			return err
		}

		previous := time.Unix(0, doc.UpdatedAt).UTC()
		for _, member := range doc.Members {
			if err = txn.Delete(memberIndexKey(member, previous, doc.ID)); err != nil {
				return err
			}
		}

		doc.LastMessage = preview
		doc.LastSenderID = senderID
		doc.UpdatedAt = at.UnixNano()

		bytes, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err = txn.Set(convKey(doc.ID), bytes); err != nil {
			return err
		}
		for _, member := range doc.Members {
			if err = txn.Set(memberIndexKey(member, at, doc.ID), []byte(doc.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func getConversationDoc(txn *badger.Txn, id string) (conversationDoc, error) {
	var doc conversationDoc
	item, err := txn.Get(convKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return doc, chisperrors.ErrConversationNotFound
	}
	if err != nil {
		return doc, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	return doc, err
}

func getConversation(txn *badger.Txn, id string) (domain.Conversation, error) {
	doc, err := getConversationDoc(txn, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(doc), nil
}

func toConversation(doc conversationDoc) domain.Conversation {
	return domain.Conversation{
		ID:           doc.ID,
		Members:      doc.Members,
		LastMessage:  doc.LastMessage,
		LastSenderID: doc.LastSenderID,
		UpdatedAt:    time.Unix(0, doc.UpdatedAt).UTC(),
	}
}
