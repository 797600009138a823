package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/outbox"
	"github.com/wwebgo/wweb/internal/status"
	"github.com/wwebgo/wweb/internal/store"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

type fakeDelivery struct{}

func (fakeDelivery) SendText(_ context.Context, _ wid.WID, _ string) (string, error) {
	return "true_123@c.us_ABC", nil
}

type serverFixture struct {
	srv *Server
	db  *store.DB
	bus *bus.Bus
	ts  *httptest.Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	sender := outbox.NewSender(db, fakeDelivery{}, b, zap.NewNop())
	s := &Server{
		logger:      zap.NewNop(),
		sessionName: "test",
		machine:     status.NewMachine(b),
		db:          db,
		sender:      sender,
		bus:         b,
		started:     time.Now(),
	}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return &serverFixture{srv: s, db: db, bus: b, ts: ts}
}

func (f *serverFixture) getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestStatusEndpoint(t *testing.T) {
	f := newServerFixture(t)

	var got statusResponse
	if code := f.getJSON(t, "/v1/status", &got); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if got.Session != "test" {
		t.Errorf("session = %q, want test", got.Session)
	}
	if got.State != string(status.Booting) {
		t.Errorf("state = %q, want %q", got.State, status.Booting)
	}
}

func TestListChats(t *testing.T) {
	f := newServerFixture(t)

	chats := []store.Chat{
		{WID: "111@c.us", Name: "Alice", LastMessageAt: 100},
		{WID: "222@g.us", Name: "Team", IsGroup: true, LastMessageAt: 200},
	}
	for i := range chats {
		if err := f.db.UpsertChat(&chats[i]); err != nil {
			t.Fatal(err)
		}
	}

	var got []chatResponse
	if code := f.getJSON(t, "/v1/chats", &got); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chats, want 2", len(got))
	}
	if got[0].WID != "222@g.us" || !got[0].IsGroup {
		t.Errorf("first chat = %+v, want most recent group first", got[0])
	}
}

func TestListMessages(t *testing.T) {
	f := newServerFixture(t)

	for i, body := range []string{"first", "second", "third"} {
		err := f.db.UpsertMessage(&store.Message{
			ChatWID:     "111@c.us",
			MsgID:       "msg-" + body,
			SenderWID:   "111@c.us",
			Body:        body,
			MessageType: "chat",
			Timestamp:   int64(100 + i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	var got []messageResponse
	code := f.getJSON(t, "/v1/chats/111@c.us/messages?limit=2", &got)
	if code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Body != "third" {
		t.Errorf("first message = %q, want newest first", got[0].Body)
	}
}

func TestSearchEndpoint(t *testing.T) {
	f := newServerFixture(t)

	err := f.db.UpsertMessage(&store.Message{
		ChatWID:     "111@c.us",
		MsgID:       "msg-1",
		SenderWID:   "111@c.us",
		Body:        "the quarterly report is ready",
		MessageType: "chat",
		Timestamp:   100,
	})
	if err != nil {
		t.Fatal(err)
	}

	var got []searchResponse
	if code := f.getJSON(t, "/v1/search?q=quarterly", &got); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Message.MsgID != "msg-1" {
		t.Errorf("result msg id = %q", got[0].Message.MsgID)
	}

	if code := f.getJSON(t, "/v1/search", nil); code != http.StatusBadRequest {
		t.Errorf("missing query status = %d, want 400", code)
	}
}

func TestSendMessageQueues(t *testing.T) {
	f := newServerFixture(t)

	body, _ := json.Marshal(sendRequest{ChatID: "111@c.us", Body: "hello"})
	resp, err := http.Post(f.ts.URL+"/v1/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202", resp.StatusCode)
	}
	var got sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ClientMsgID == "" {
		t.Error("client_msg_id is empty")
	}

	pending, err := f.db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending entries, want 1", len(pending))
	}
	if pending[0].Body != "hello" {
		t.Errorf("pending body = %q", pending[0].Body)
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newServerFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{"chat_id":"111@c.us"}`},
		{"missing chat", `{"body":"hi"}`},
		{"bad chat id", `{"chat_id":"not-a-wid","body":"hi"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(f.ts.URL+"/v1/messages", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status code = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestEventsWebsocket(t *testing.T) {
	f := newServerFixture(t)

	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/v1/events?namespace=message."
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// The first emit is outside the subscribed namespace and must not
	// reach the stream.
	f.bus.Emit(bus.KindReady, nil)
	f.bus.Emit(bus.KindMessageCreated, map[string]string{"body": "hi"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame eventFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Kind != bus.KindMessageCreated {
		t.Errorf("kind = %q, want %q", frame.Kind, bus.KindMessageCreated)
	}
}

func TestServerSocketLifecycle(t *testing.T) {
	// Use a short path to avoid the 104-char Unix socket limit.
	tmpDir, err := os.MkdirTemp("/tmp", "wweb-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	socketPath := filepath.Join(tmpDir, "d.sock")

	// A stale socket must be cleaned up.
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	db, err := store.Open(filepath.Join(tmpDir, "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	sender := outbox.NewSender(db, fakeDelivery{}, b, zap.NewNop())
	srv, err := NewServer(Params{SessionName: "test", SocketPath: socketPath},
		zap.NewNop(), status.NewMachine(b), db, sender, b)
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket perm = %o, want 0600", perm)
	}

	go func() { _ = srv.Start() }()

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
	var resp *http.Response
	for i := 0; i < 20; i++ {
		resp, err = httpClient.Get("http://unix/v1/status")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Stop(ctx)
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not removed on stop")
	}
}
