package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertContact inserts or updates a contact. Empty incoming names never
// overwrite known ones.
func (db *DB) UpsertContact(c *Contact) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(upsertContactSQL, c.WID, c.Name, c.PushName, c.Number, c.IsBusiness, now)
	return err
}

const upsertContactSQL = `
	INSERT INTO contacts (wid, name, push_name, number, is_business, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(wid) DO UPDATE SET
		name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END,
		push_name = CASE WHEN excluded.push_name != '' THEN excluded.push_name ELSE contacts.push_name END,
		number = CASE WHEN excluded.number != '' THEN excluded.number ELSE contacts.number END,
		is_business = excluded.is_business,
		updated_at = excluded.updated_at`

// BulkUpsertContacts applies a whole contact listing in one transaction.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(upsertContactSQL, c.WID, c.Name, c.PushName, c.Number, c.IsBusiness, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.WID, err)
		}
	}
	return tx.Commit()
}

// RenameContact moves a contact row to a new id, used when a contact
// changes phone number.
func (db *DB) RenameContact(oldWID, newWID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO contacts (wid, name, push_name, number, is_business, updated_at)
		SELECT ?, name, push_name, '', is_business, ? FROM contacts WHERE wid = ?
		ON CONFLICT(wid) DO NOTHING`, newWID, now, oldWID); err != nil {
		return fmt.Errorf("copy contact: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM contacts WHERE wid = ?`, oldWID); err != nil {
		return fmt.Errorf("drop old contact: %w", err)
	}
	return tx.Commit()
}

// GetContact returns a contact, or nil when unknown.
func (db *DB) GetContact(wid string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT wid, name, push_name, number, is_business FROM contacts WHERE wid = ?`, wid).
		Scan(&c.WID, &c.Name, &c.PushName, &c.Number, &c.IsBusiness)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
