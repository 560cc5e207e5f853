//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chispa/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// messageDoc is the JSON document persisted in BadgerDB. The message stream
// is append-only: documents are never rewritten once stored.
type messageDoc struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	AuthorID       string     `json:"author_id"`
	Type           string     `json:"type"`
	Text           string     `json:"text"`
	Media          []mediaDoc `json:"media"`
	CreatedAt      int64      `json:"created_at"` // unix nanoseconds, UTC
}

type mediaDoc struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	DurationSec int    `json:"duration_sec,omitempty"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ConversationID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves messages of a conversation using a prefix scan,
// oldest first. Thanks to the padded timestamp in the key, the scan order is
// the chronological order. It stops once the configured limitMessages page is
// full and returns the cursor to resume from.
func (m MessageRepository) GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error) {
	var rawDocs [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversationID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		// The cursor points at the last delivered message, skip it.
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawDocs) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawDocs = append(rawDocs, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.Message
	for _, raw := range rawDocs {
		var doc messageDoc
		if err = json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, err
		}
		message, err := toMessage(doc)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, &lastKey, nil
}

func fromMessage(message domain.Message) messageDoc {
	return messageDoc{
		ID:             message.ID.String(),
		ConversationID: message.ConversationID,
		AuthorID:       message.AuthorID,
		Type:           string(message.Type),
		Text:           message.Text,
		Media: lo.Map(message.Media, func(item domain.MediaItem, _ int) mediaDoc {
			return mediaDoc{
				Type:        string(item.Type),
				URL:         item.URL,
				DurationSec: item.DurationSec,
			}
		}),
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func toMessage(doc messageDoc) (domain.Message, error) {
	parsedID, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:             parsedID,
		ConversationID: doc.ConversationID,
		AuthorID:       doc.AuthorID,
		Type:           domain.MessageType(doc.Type),
		Text:           doc.Text,
		Media: lo.Map(doc.Media, func(item mediaDoc, _ int) domain.MediaItem {
			return domain.MediaItem{
				Type:        domain.MediaType(item.Type),
				URL:         item.URL,
				DurationSec: item.DurationSec,
			}
		}),
		CreatedAt: time.Unix(0, doc.CreatedAt).UTC(),
	}, nil
}
