package store

import "fmt"

// LIDMapping maps a linked-device identifier to a phone-number user.
type LIDMapping struct {
	LID string
	PN  string
}

// SyncLIDMap replaces the lid_map table with the given mappings.
func (db *DB) SyncLIDMap(mappings []LIDMapping) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM lid_map`); err != nil {
		return fmt.Errorf("clear lid_map: %w", err)
	}
	for _, m := range mappings {
		if _, err := tx.Exec(`INSERT INTO lid_map (lid, pn) VALUES (?, ?)`, m.LID, m.PN); err != nil {
			return fmt.Errorf("insert lid_map %q: %w", m.LID, err)
		}
	}
	return tx.Commit()
}

// ReconcileLIDs merges @lid chat entries into their phone-number
// equivalents (@c.us) and returns how many were merged. Messages and
// contacts move with the chat; the @lid rows are removed afterwards.
func (db *DB) ReconcileLIDs() (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO chats (wid, name, is_group, archived, pinned, unread_count, last_message_at, last_message_preview, updated_at)
		SELECT lm.pn || '@c.us', c.name, c.is_group, c.archived, c.pinned, c.unread_count, c.last_message_at, c.last_message_preview, c.updated_at
		FROM chats c
		JOIN lid_map lm ON c.wid = lm.lid || '@lid'
		WHERE 1
		ON CONFLICT(wid) DO UPDATE SET
			last_message_at = MAX(chats.last_message_at, excluded.last_message_at),
			last_message_preview = CASE WHEN excluded.last_message_at > chats.last_message_at THEN excluded.last_message_preview ELSE chats.last_message_preview END,
			name = CASE WHEN chats.name = '' THEN excluded.name ELSE chats.name END,
			updated_at = excluded.updated_at
	`); err != nil {
		return 0, fmt.Errorf("ensure phone-number chats: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE messages SET
			chat_wid = (SELECT lm.pn || '@c.us' FROM lid_map lm WHERE messages.chat_wid = lm.lid || '@lid'),
			sender_wid = COALESCE(
				(SELECT lm2.pn || '@c.us' FROM lid_map lm2 WHERE messages.sender_wid = lm2.lid || '@lid'),
				messages.sender_wid
			)
		WHERE chat_wid IN (SELECT lm.lid || '@lid' FROM lid_map lm)
	`); err != nil {
		return 0, fmt.Errorf("reassign messages: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO contacts (wid, name, push_name, number, is_business, updated_at)
		SELECT lm.pn || '@c.us', ct.name, ct.push_name, lm.pn, ct.is_business, ct.updated_at
		FROM contacts ct
		JOIN lid_map lm ON ct.wid = lm.lid || '@lid'
		WHERE 1
		ON CONFLICT(wid) DO UPDATE SET
			name = CASE WHEN contacts.name = '' AND excluded.name != '' THEN excluded.name ELSE contacts.name END,
			push_name = CASE WHEN contacts.push_name = '' AND excluded.push_name != '' THEN excluded.push_name ELSE contacts.push_name END,
			updated_at = excluded.updated_at
	`); err != nil {
		return 0, fmt.Errorf("reassign contacts: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM contacts WHERE wid IN (SELECT lm.lid || '@lid' FROM lid_map lm)`); err != nil {
		return 0, fmt.Errorf("delete lid contacts: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM chats WHERE wid IN (SELECT lm.lid || '@lid' FROM lid_map lm)`)
	if err != nil {
		return 0, fmt.Errorf("delete lid chats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return result.RowsAffected()
}
