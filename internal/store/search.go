package store

// Search performs a full-text search on archived message bodies. An empty
// chat filter searches every chat.
func (db *DB) Search(query, chatWID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.id, m.chat_wid, m.msg_id, m.sender_wid, m.body,
		       m.message_type, m.from_me, m.ack, m.revoked, m.timestamp,
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if chatWID != "" {
		q += " AND m.chat_wid = ?"
		args = append(args, chatWID)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.Message.ID, &r.Message.ChatWID, &r.Message.MsgID,
			&r.Message.SenderWID, &r.Message.Body, &r.Message.MessageType,
			&r.Message.FromMe, &r.Message.Ack, &r.Message.Revoked,
			&r.Message.Timestamp, &r.Snippet,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
