package store

import "time"

// UpsertMessage inserts or updates a message, idempotent on
// (chat_wid, msg_id). Re-observing a message refreshes its mutable fields.
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (chat_wid, msg_id, sender_wid, body, message_type, from_me, ack, revoked, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_wid, msg_id) DO UPDATE SET
			body = excluded.body,
			message_type = excluded.message_type,
			ack = excluded.ack,
			revoked = excluded.revoked`,
		m.ChatWID, m.MsgID, m.SenderWID, m.Body, m.MessageType, m.FromMe, m.Ack, m.Revoked, m.Timestamp, now)
	return err
}

// SetAck raises the delivery ack of a message. Acks only move forward;
// out-of-order updates are ignored.
func (db *DB) SetAck(chatWID, msgID string, ack int) error {
	_, err := db.Exec(`UPDATE messages SET ack = ? WHERE chat_wid = ? AND msg_id = ? AND ack < ?`,
		ack, chatWID, msgID, ack)
	return err
}

// MarkRevoked flags a message as revoked and clears its body.
func (db *DB) MarkRevoked(chatWID, msgID string) error {
	_, err := db.Exec(`UPDATE messages SET revoked = 1, body = '', message_type = 'revoked' WHERE chat_wid = ? AND msg_id = ?`,
		chatWID, msgID)
	return err
}

// ApplyEdit replaces the body of an edited message.
func (db *DB) ApplyEdit(chatWID, msgID, newBody string) error {
	_, err := db.Exec(`UPDATE messages SET body = ? WHERE chat_wid = ? AND msg_id = ?`,
		newBody, chatWID, msgID)
	return err
}

// ListMessages returns messages for a chat using keyset pagination by
// timestamp, newest first.
func (db *DB) ListMessages(chatWID string, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, chat_wid, msg_id, sender_wid, body, message_type, from_me, ack, revoked, timestamp
		FROM messages
		WHERE chat_wid = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT ?`, chatWID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatWID, &m.MsgID, &m.SenderWID, &m.Body, &m.MessageType, &m.FromMe, &m.Ack, &m.Revoked, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of archived messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
