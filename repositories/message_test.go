package repositories

import (
	"chispa/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Store_And_Get_Messages_In_Chronological_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	conversationID := uuid.NewString()
	at := time.Now().UTC()
	stored := []domain.Message{
		newTextMessage(conversationID, "alice", "hola", at),
		newTextMessage(conversationID, "bob", "qué tal", at.Add(1*time.Minute)),
		newTextMessage(conversationID, "alice", "todo bien", at.Add(2*time.Minute)),
	}
	for _, m := range stored {
		req.NoError(repository.StoreMessage(m))
	}

	fetched, _, err := repository.GetMessages(conversationID, nil)
	req.NoError(err)
	req.Len(fetched, len(stored))
	for i := range stored {
		req.Equal(stored[i].ID, fetched[i].ID)
		req.Equal(stored[i].Text, fetched[i].Text)
		req.Equal(stored[i].AuthorID, fetched[i].AuthorID)
		req.Equal(stored[i].CreatedAt, fetched[i].CreatedAt)
	}
}

func Test_GetMessages_Ignores_Other_Conversations(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	mine := uuid.NewString()
	other := uuid.NewString()
	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(newTextMessage(mine, "alice", "para ti", at)))
	req.NoError(repository.StoreMessage(newTextMessage(other, "carla", "otro hilo", at)))

	fetched, _, err := repository.GetMessages(mine, nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("para ti", fetched[0].Text)
}

func Test_GetMessages_Pagination(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)
	conversationID := uuid.NewString()
	at := time.Now().UTC()
	for i := 1; i <= 5; i++ {
		m := newTextMessage(conversationID, "alice", lo.RandomString(8, lo.LettersCharset), at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.StoreMessage(m))
	}

	page1, cursor1, err := repository.GetMessages(conversationID, nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.NotEmpty(cursor1)

	page2, cursor2, err := repository.GetMessages(conversationID, cursor1)
	req.NoError(err)
	req.Len(page2, 2)

	page3, _, err := repository.GetMessages(conversationID, cursor2)
	req.NoError(err)
	req.Len(page3, 1)

	// No overlap across pages.
	seen := map[uuid.UUID]struct{}{}
	for _, m := range append(append(page1, page2...), page3...) {
		_, duplicated := seen[m.ID]
		req.False(duplicated)
		seen[m.ID] = struct{}{}
	}
}

func Test_Store_Message_With_Media_Round_Trip(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	conversationID := uuid.NewString()
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		AuthorID:       "bob",
		Type:           domain.MessageMedia,
		Media: []domain.MediaItem{
			{Type: domain.MediaImage, URL: "/uploads/bob/c1/1_selfie.jpg"},
			{Type: domain.MediaAudio, URL: "/uploads/bob/c1/2_voice.ogg", DurationSec: 12},
		},
		CreatedAt: time.Now().UTC(),
	}
	req.NoError(repository.StoreMessage(message))

	fetched, _, err := repository.GetMessages(conversationID, nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(domain.MessageMedia, fetched[0].Type)
	req.Equal(message.Media, fetched[0].Media)
}

func newTextMessage(conversationID, author, text string, at time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		AuthorID:       author,
		Type:           domain.MessageText,
		Text:           text,
		CreatedAt:      at,
	}
}
