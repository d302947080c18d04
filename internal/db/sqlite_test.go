package db_test

import (
	"testing"
	"time"

	"saturn-chat/internal/db"
	"saturn-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// settle keeps successive writes from sharing a timestamp, so that
// ordering assertions are unambiguous.
func settle() {
	time.Sleep(2 * time.Millisecond)
}

func TestCreateChatDefaults(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)

	assert.NotZero(t, chat.ID)
	assert.Equal(t, models.DefaultTitle, chat.Title)
	assert.True(t, chat.UpdatedAt.Equal(chat.CreatedAt))

	got, err := database.GetChat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)
	assert.Equal(t, models.DefaultTitle, got.Title)
}

func TestGetChatNotFound(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetChat(42)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListChatsMostRecentlyUpdatedFirst(t *testing.T) {
	database := newTestDB(t)

	a, err := database.CreateChat()
	require.NoError(t, err)
	settle()
	b, err := database.CreateChat()
	require.NoError(t, err)
	settle()
	c, err := database.CreateChat()
	require.NoError(t, err)

	chats, err := database.ListChats()
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, ids(chats))

	// Appending a message bumps its chat to the top.
	settle()
	_, err = database.SaveMessage(a.ID, "hello", models.SenderUser)
	require.NoError(t, err)

	chats, err = database.ListChats()
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, ids(chats))

	// So does a title update.
	settle()
	require.NoError(t, database.UpdateChatTitle(b.ID, "renamed"))

	chats, err = database.ListChats()
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, ids(chats))
}

func ids(chats []models.Chat) []int64 {
	out := make([]int64, 0, len(chats))
	for _, c := range chats {
		out = append(out, c.ID)
	}
	return out
}

func TestDeleteChatCascades(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)
	_, err = database.SaveMessage(chat.ID, "hi", models.SenderUser)
	require.NoError(t, err)
	_, err = database.SaveMessage(chat.ID, "hello", models.SenderBot)
	require.NoError(t, err)

	require.NoError(t, database.DeleteChat(chat.ID))

	_, err = database.GetChat(chat.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = database.ListMessages(chat.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// A second delete finds nothing.
	assert.ErrorIs(t, database.DeleteChat(chat.ID), db.ErrNotFound)
}

func TestDeleteEmptyChat(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)
	assert.NoError(t, database.DeleteChat(chat.ID))
}

func TestSaveMessageConstraints(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)

	_, err = database.SaveMessage(999, "hi", models.SenderUser)
	assert.ErrorIs(t, err, db.ErrConstraint)

	_, err = database.SaveMessage(chat.ID, "hi", models.Sender("system"))
	assert.ErrorIs(t, err, db.ErrConstraint)

	_, err = database.SaveMessage(chat.ID, "", models.SenderUser)
	assert.ErrorIs(t, err, db.ErrConstraint)

	messages, err := database.ListMessages(chat.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSaveMessageAdvancesUpdatedAt(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)
	settle()

	_, err = database.SaveMessage(chat.ID, "hi", models.SenderUser)
	require.NoError(t, err)

	got, err := database.GetChat(chat.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(chat.UpdatedAt))
	assert.True(t, got.CreatedAt.Equal(chat.CreatedAt))
}

func TestListMessagesInCreationOrder(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)

	texts := []string{"first", "second", "third", "fourth"}
	senders := []models.Sender{models.SenderUser, models.SenderBot, models.SenderUser, models.SenderBot}
	for i := range texts {
		_, err = database.SaveMessage(chat.ID, texts[i], senders[i])
		require.NoError(t, err)
	}

	messages, err := database.ListMessages(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, m := range messages {
		assert.Equal(t, texts[i], m.Text)
		assert.Equal(t, senders[i], m.Sender)
	}

	// Listing again without writes yields the same sequence.
	again, err := database.ListMessages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, messages, again)
}

func TestGetChatWithMessages(t *testing.T) {
	database := newTestDB(t)

	_, _, err := database.GetChatWithMessages(7)
	assert.ErrorIs(t, err, db.ErrNotFound)

	chat, err := database.CreateChat()
	require.NoError(t, err)

	got, messages, err := database.GetChatWithMessages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)
	assert.Empty(t, messages)

	_, err = database.SaveMessage(chat.ID, "hi", models.SenderUser)
	require.NoError(t, err)

	_, messages, err = database.GetChatWithMessages(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Text)
}

func TestUpdateChatTitle(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)
	settle()

	require.NoError(t, database.UpdateChatTitle(chat.ID, "new title"))

	got, err := database.GetChat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.True(t, got.UpdatedAt.After(chat.UpdatedAt))

	assert.ErrorIs(t, database.UpdateChatTitle(999, "x"), db.ErrNotFound)
}

func TestTouchChat(t *testing.T) {
	database := newTestDB(t)

	chat, err := database.CreateChat()
	require.NoError(t, err)
	settle()

	require.NoError(t, database.TouchChat(chat.ID))

	got, err := database.GetChat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTitle, got.Title)
	assert.True(t, got.UpdatedAt.After(chat.UpdatedAt))

	assert.ErrorIs(t, database.TouchChat(999), db.ErrNotFound)
}
