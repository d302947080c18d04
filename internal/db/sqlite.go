package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"saturn-chat/internal/models"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a chat id matches no row.
	ErrNotFound = errors.New("chat not found")
	// ErrConstraint is returned when a write violates the schema, e.g.
	// appending a message to a nonexistent chat.
	ErrConstraint = errors.New("constraint violation")
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL DEFAULT 'untitled',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    sender TEXT NOT NULL CHECK(sender IN ('user', 'bot')),
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
);`

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one pooled connection also keeps
	// :memory: databases whole across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// CreateChat inserts a new chat with the default title. Both timestamps
// are set to the same instant.
func (d *Database) CreateChat() (*models.Chat, error) {
	now := time.Now().UTC()

	res, err := d.db.Exec(
		`INSERT INTO chats (title, created_at, updated_at) VALUES (?, ?, ?)`,
		models.DefaultTitle, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Chat{
		ID:        id,
		Title:     models.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (d *Database) GetChat(id int64) (*models.Chat, error) {
	var chat models.Chat
	err := d.db.QueryRow(
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, id).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats returns all chats, most recently updated first. Ties are
// broken by id so the order is stable.
func (d *Database) ListChats() ([]models.Chat, error) {
	rows, err := d.db.Query(
		`SELECT id, title, created_at, updated_at FROM chats
         ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]models.Chat, 0)
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// DeleteChat removes a chat and all of its messages in one transaction.
func (d *Database) DeleteChat(id int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
		return err
	}

	res, err := tx.Exec(`DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// SaveMessage appends a message to a chat and bumps the chat's updated_at
// in the same transaction.
func (d *Database) SaveMessage(chatID int64, text string, sender models.Sender) (*models.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty message text", ErrConstraint)
	}
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: invalid sender %q", ErrConstraint, sender)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.Exec(
		`INSERT INTO messages (chat_id, text, sender, created_at) VALUES (?, ?, ?, ?)`,
		chatID, text, string(sender), now)
	if err != nil {
		return nil, asConstraint(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE chats SET updated_at = ? WHERE id = ?`, now, chatID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Message{
		ID:        id,
		ChatID:    chatID,
		Text:      text,
		Sender:    sender,
		CreatedAt: now,
	}, nil
}

// ListMessages returns a chat's messages in creation order. Reports
// ErrNotFound when the chat itself does not exist, so callers can tell
// an empty chat from a deleted one.
func (d *Database) ListMessages(chatID int64) ([]models.Message, error) {
	var exists int
	err := d.db.QueryRow(`SELECT 1 FROM chats WHERE id = ?`, chatID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(
		`SELECT id, chat_id, text, sender, created_at FROM messages
         WHERE chat_id = ?
         ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Text, &msg.Sender, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// GetChatWithMessages fetches a chat together with its ordered messages,
// in the shape the front-end renders. Reports ErrNotFound exactly when
// GetChat does.
func (d *Database) GetChatWithMessages(id int64) (*models.Chat, []models.Message, error) {
	chat, err := d.GetChat(id)
	if err != nil {
		return nil, nil, err
	}
	messages, err := d.ListMessages(id)
	if err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

func (d *Database) UpdateChatTitle(id int64, title string) error {
	res, err := d.db.Exec(
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// TouchChat advances a chat's updated_at without changing anything else.
func (d *Database) TouchChat(id int64) error {
	res, err := d.db.Exec(
		`UPDATE chats SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func asConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
