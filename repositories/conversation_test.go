package repositories

import (
	"chispa/domain"
	"chispa/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_EnsureConversation_Is_Implicit_And_Idempotent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewConversationRepository(db, slog.Default())

	first, err := repository.EnsureConversation("alice", "bob")
	req.NoError(err)
	req.NotEmpty(first.ID)
	req.True(first.HasMember("alice"))
	req.True(first.HasMember("bob"))

	// Same pair in reverse order resolves to the same conversation.
	second, err := repository.EnsureConversation("bob", "alice")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
}

func Test_Get_Unknown_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewConversationRepository(db, slog.Default())

	_, err := repository.Get("missing")
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func Test_ListByMember_Ordered_By_Most_Recent_Activity(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewConversationRepository(db, slog.Default())

	withBob, err := repository.EnsureConversation("alice", "bob")
	req.NoError(err)
	withCarla, err := repository.EnsureConversation("alice", "carla")
	req.NoError(err)

	at := time.Now().UTC()
	req.NoError(repository.TouchConversation(withBob.ID, "hola", "alice", at))
	req.NoError(repository.TouchConversation(withCarla.ID, "buenas", "carla", at.Add(time.Minute)))

	listed, err := repository.ListByMember("alice")
	req.NoError(err)
	req.Len(listed, 2)
	req.Equal(withCarla.ID, listed[0].ID)
	req.Equal(withBob.ID, listed[1].ID)

	// Activity on the older thread moves it back to the top, without duplicates.
	req.NoError(repository.TouchConversation(withBob.ID, domain.PreviewPhoto, "bob", at.Add(2*time.Minute)))
	listed, err = repository.ListByMember("alice")
	req.NoError(err)
	req.Len(listed, 2)
	req.Equal(withBob.ID, listed[0].ID)
	req.Equal(domain.PreviewPhoto, listed[0].LastMessage)
	req.Equal("bob", listed[0].LastSenderID)
}

func Test_TouchConversation_Refreshes_Denormalized_Fields(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewConversationRepository(db, slog.Default())

	conversation, err := repository.EnsureConversation("alice", "bob")
	req.NoError(err)

	at := time.Now().UTC().Add(time.Second)
	req.NoError(repository.TouchConversation(conversation.ID, "nos vemos", "alice", at))

	fetched, err := repository.Get(conversation.ID)
	req.NoError(err)
	req.Equal("nos vemos", fetched.LastMessage)
	req.Equal("alice", fetched.LastSenderID)
	req.Equal(at, fetched.UpdatedAt)
}
