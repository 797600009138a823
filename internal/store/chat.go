package store

import (
	"database/sql"
	"time"
)

// UpsertChat inserts or updates a chat record.
func (db *DB) UpsertChat(c *Chat) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO chats (wid, name, is_group, archived, pinned, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wid) DO UPDATE SET
			name = excluded.name,
			is_group = excluded.is_group,
			archived = excluded.archived,
			pinned = excluded.pinned,
			unread_count = excluded.unread_count,
			last_message_at = excluded.last_message_at,
			last_message_preview = excluded.last_message_preview,
			updated_at = excluded.updated_at`,
		c.WID, c.Name, c.IsGroup, c.Archived, c.Pinned, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

// SetChatArchived updates only the archived flag.
func (db *DB) SetChatArchived(wid string, archived bool) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE chats SET archived = ?, updated_at = ? WHERE wid = ?`, archived, now, wid)
	return err
}

// SetChatUnreadCount updates only the unread counter.
func (db *DB) SetChatUnreadCount(wid string, count int) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE chats SET unread_count = ?, updated_at = ? WHERE wid = ?`, count, now, wid)
	return err
}

// DeleteChat removes a chat row; its archived messages stay.
func (db *DB) DeleteChat(wid string) error {
	_, err := db.Exec(`DELETE FROM chats WHERE wid = ?`, wid)
	return err
}

// ListChats returns chats sorted by last message timestamp descending.
// Display names resolve through the contacts table with fallback:
// chat.name, then contact.push_name, then contact.name, then the wid.
func (db *DB) ListChats(limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT c.wid,
			COALESCE(NULLIF(c.name,''), NULLIF(ct.push_name,''), NULLIF(ct.name,''), c.wid) AS display_name,
			c.is_group, c.archived, c.pinned, c.unread_count, c.last_message_at, c.last_message_preview
		FROM chats c
		LEFT JOIN contacts ct ON c.wid = ct.wid
		WHERE c.wid NOT LIKE '%@lid'
		ORDER BY c.last_message_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.WID, &c.Name, &c.IsGroup, &c.Archived, &c.Pinned, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns a single chat, or nil when unknown.
func (db *DB) GetChat(wid string) (*Chat, error) {
	var c Chat
	err := db.QueryRow(`
		SELECT c.wid,
			COALESCE(NULLIF(c.name,''), NULLIF(ct.push_name,''), NULLIF(ct.name,''), c.wid) AS display_name,
			c.is_group, c.archived, c.pinned, c.unread_count, c.last_message_at, c.last_message_preview
		FROM chats c
		LEFT JOIN contacts ct ON c.wid = ct.wid
		WHERE c.wid = ?`, wid).
		Scan(&c.WID, &c.Name, &c.IsGroup, &c.Archived, &c.Pinned, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChatCount returns the total number of chats.
func (db *DB) ChatCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}
