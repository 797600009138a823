package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result, err := db.Migrate()
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !result.Changed {
		t.Fatal("Migrate() applied nothing on a fresh database")
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	result, err := db.Migrate()
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if result.Changed {
		t.Error("second Migrate() reported changes")
	}
}

func TestUpsertMessageIdempotent(t *testing.T) {
	db := testDB(t)

	msg := &Message{
		ChatWID:     "5511999999999@c.us",
		MsgID:       "MSG1",
		SenderWID:   "5511888888888@c.us",
		Body:        "hello",
		MessageType: "chat",
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatalf("UpsertMessage() error = %v", err)
	}

	msg.Body = "hello edited"
	msg.Ack = 2
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatalf("second UpsertMessage() error = %v", err)
	}

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("message count = %d, want deduplicated 1", count)
	}

	msgs, err := db.ListMessages("5511999999999@c.us", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Body != "hello edited" || msgs[0].Ack != 2 {
		t.Errorf("message = %+v, want refreshed fields", msgs[0])
	}
}

func TestSetAckOnlyMovesForward(t *testing.T) {
	db := testDB(t)

	msg := &Message{ChatWID: "c@c.us", MsgID: "M1", Ack: 2, Timestamp: 1}
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}

	if err := db.SetAck("c@c.us", "M1", 1); err != nil {
		t.Fatal(err)
	}
	msgs, _ := db.ListMessages("c@c.us", 0, 1)
	if msgs[0].Ack != 2 {
		t.Errorf("ack regressed to %d", msgs[0].Ack)
	}

	if err := db.SetAck("c@c.us", "M1", 3); err != nil {
		t.Fatal(err)
	}
	msgs, _ = db.ListMessages("c@c.us", 0, 1)
	if msgs[0].Ack != 3 {
		t.Errorf("ack = %d, want raised to 3", msgs[0].Ack)
	}
}

func TestMarkRevokedClearsBody(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessage(&Message{ChatWID: "c@c.us", MsgID: "M1", Body: "secret", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkRevoked("c@c.us", "M1"); err != nil {
		t.Fatal(err)
	}

	msgs, _ := db.ListMessages("c@c.us", 0, 1)
	if !msgs[0].Revoked || msgs[0].Body != "" || msgs[0].MessageType != "revoked" {
		t.Errorf("message = %+v, want revoked with cleared body", msgs[0])
	}
}

func TestListMessagesKeysetPagination(t *testing.T) {
	db := testDB(t)

	for i := int64(1); i <= 5; i++ {
		if err := db.UpsertMessage(&Message{
			ChatWID: "c@c.us", MsgID: "M" + string(rune('0'+i)), Body: "m", Timestamp: i * 1000,
		}); err != nil {
			t.Fatal(err)
		}
	}

	page1, err := db.ListMessages("c@c.us", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 2 || page1[0].Timestamp != 5000 {
		t.Fatalf("page1 = %+v", page1)
	}

	page2, err := db.ListMessages("c@c.us", page1[1].Timestamp, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 2 || page2[0].Timestamp != 3000 {
		t.Fatalf("page2 = %+v", page2)
	}
}

func TestChatDisplayNameFallback(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertChat(&Chat{WID: "1@c.us", Name: "", LastMessageAt: 10}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertContact(&Contact{WID: "1@c.us", PushName: "Alice"}); err != nil {
		t.Fatal(err)
	}

	chat, err := db.GetChat("1@c.us")
	if err != nil {
		t.Fatal(err)
	}
	if chat.Name != "Alice" {
		t.Errorf("display name = %q, want push name fallback", chat.Name)
	}
}

func TestGetChatMissing(t *testing.T) {
	db := testDB(t)
	chat, err := db.GetChat("missing@c.us")
	if err != nil {
		t.Fatal(err)
	}
	if chat != nil {
		t.Errorf("chat = %+v, want nil", chat)
	}
}

func TestContactEmptyNamesDoNotOverwrite(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContact(&Contact{WID: "1@c.us", Name: "Alice", PushName: "Ali"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertContact(&Contact{WID: "1@c.us", Name: "", PushName: ""}); err != nil {
		t.Fatal(err)
	}

	c, _ := db.GetContact("1@c.us")
	if c.Name != "Alice" || c.PushName != "Ali" {
		t.Errorf("contact = %+v, want names preserved", c)
	}
}

func TestRenameContact(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContact(&Contact{WID: "old@c.us", Name: "Bob"}); err != nil {
		t.Fatal(err)
	}
	if err := db.RenameContact("old@c.us", "new@c.us"); err != nil {
		t.Fatal(err)
	}

	old, _ := db.GetContact("old@c.us")
	if old != nil {
		t.Error("old contact still present")
	}
	moved, _ := db.GetContact("new@c.us")
	if moved == nil || moved.Name != "Bob" {
		t.Errorf("moved contact = %+v", moved)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	db := testDB(t)

	if err := db.QueueOutbox("client-1", "1@c.us", "hello"); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != "queued" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := db.MarkOutboxSent("client-1", "SERVER1"); err != nil {
		t.Fatal(err)
	}
	pending, _ = db.PendingOutbox()
	if len(pending) != 0 {
		t.Error("sent entry still pending")
	}
}

func TestSearchFindsBody(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessage(&Message{ChatWID: "1@c.us", MsgID: "M1", Body: "the quarterly report is ready", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{ChatWID: "2@c.us", MsgID: "M2", Body: "lunch tomorrow?", Timestamp: 2}); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search("quarterly", "", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Message.MsgID != "M1" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("snippet missing")
	}

	scoped, err := db.Search("quarterly", "2@c.us", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 0 {
		t.Error("chat filter ignored")
	}
}

func TestReconcileLIDs(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertChat(&Chat{WID: "555111@lid", Name: "Linked", LastMessageAt: 100}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{ChatWID: "555111@lid", MsgID: "M1", Body: "hi", Timestamp: 100}); err != nil {
		t.Fatal(err)
	}
	if err := db.SyncLIDMap([]LIDMapping{{LID: "555111", PN: "5511999999999"}}); err != nil {
		t.Fatal(err)
	}

	merged, err := db.ReconcileLIDs()
	if err != nil {
		t.Fatalf("ReconcileLIDs() error = %v", err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}

	chat, _ := db.GetChat("5511999999999@c.us")
	if chat == nil {
		t.Fatal("phone-number chat missing after reconcile")
	}
	msgs, _ := db.ListMessages("5511999999999@c.us", 0, 10)
	if len(msgs) != 1 {
		t.Errorf("messages moved = %d, want 1", len(msgs))
	}
	if gone, _ := db.GetChat("555111@lid"); gone != nil {
		t.Error("lid chat still present")
	}
}
