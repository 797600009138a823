package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/wwebgo/wweb/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := newClient(session.SocketPath(sessionName))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "chats":
		cmdChats(ctx, c, *jsonFlag)
	case "send":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: wwebctl send <chat-id> <text>")
			os.Exit(1)
		}
		cmdSend(ctx, c, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: wwebctl search <query>")
			os.Exit(1)
		}
		cmdSearch(ctx, c, strings.Join(args[1:], " "), *jsonFlag)
	case "watch":
		namespace := ""
		if len(args) >= 2 {
			namespace = args[1]
		}
		cmdWatch(c, namespace, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wwebctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                 Show session status")
	fmt.Fprintln(os.Stderr, "  chats                  List archived chats")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <text>  Queue a text message for delivery")
	fmt.Fprintln(os.Stderr, "  search <query>         Full-text search the message archive")
	fmt.Fprintln(os.Stderr, "  watch [namespace]      Stream session events (renders QR codes)")
}

// client talks HTTP to the daemon over its Unix domain socket.
type client struct {
	socketPath string
	http       *http.Client
}

func newClient(socketPath string) *client {
	return &client{
		socketPath: socketPath,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix"+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach daemon: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://unix"+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach daemon: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(ctx context.Context, c *client, jsonOut bool) {
	var resp struct {
		Session string `json:"session"`
		State   string `json:"state"`
		Uptime  string `json:"uptime"`
	}
	if err := c.get(ctx, "/v1/status", &resp); err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Session: %s\n", resp.Session)
	fmt.Printf("State:   %s\n", resp.State)
	fmt.Printf("Uptime:  %s\n", resp.Uptime)
}

func cmdChats(ctx context.Context, c *client, jsonOut bool) {
	var chats []struct {
		WID         string `json:"wid"`
		Name        string `json:"name"`
		IsGroup     bool   `json:"is_group"`
		UnreadCount int    `json:"unread_count"`
		Preview     string `json:"last_message_preview"`
	}
	if err := c.get(ctx, "/v1/chats", &chats); err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(chats)
		return
	}
	if len(chats) == 0 {
		fmt.Println("No chats archived yet.")
		return
	}
	for _, chat := range chats {
		kind := " "
		if chat.IsGroup {
			kind = "G"
		}
		unread := ""
		if chat.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d)", chat.UnreadCount)
		}
		fmt.Printf("%s %-28s %-24s %s%s\n", kind, chat.Name, chat.WID, chat.Preview, unread)
	}
}

func cmdSend(ctx context.Context, c *client, chatID, text string, jsonOut bool) {
	req := map[string]string{"chat_id": chatID, "body": text}
	var resp struct {
		ClientMsgID string `json:"client_msg_id"`
	}
	if err := c.post(ctx, "/v1/messages", req, &resp); err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Queued: %s\n", resp.ClientMsgID)
}

func cmdSearch(ctx context.Context, c *client, query string, jsonOut bool) {
	var results []struct {
		Message struct {
			ChatWID   string `json:"chat_wid"`
			Body      string `json:"body"`
			Timestamp int64  `json:"timestamp"`
		} `json:"message"`
		Snippet string `json:"snippet"`
	}
	if err := c.get(ctx, "/v1/search?q="+url.QueryEscape(query), &results); err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, res := range results {
		ts := time.Unix(res.Message.Timestamp, 0).Format("2006-01-02 15:04")
		fmt.Printf("%s  %-24s %s\n", ts, res.Message.ChatWID, res.Snippet)
	}
}

func cmdWatch(c *client, namespace string, jsonOut bool) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", c.socketPath)
		},
	}
	url := "ws://unix/v1/events"
	if namespace != "" {
		url += "?namespace=" + namespace
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		fatal(fmt.Errorf("cannot reach daemon: %w", err))
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.Close()
		os.Exit(0)
	}()

	for {
		var frame struct {
			Kind      string          `json:"kind"`
			Timestamp time.Time       `json:"timestamp"`
			Payload   json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(frame)
			continue
		}
		if frame.Kind == "session.qr" {
			renderQR(frame.Payload)
			continue
		}
		payload := strings.TrimSpace(string(frame.Payload))
		if payload == "null" {
			payload = ""
		}
		fmt.Printf("%s  %-26s %s\n", frame.Timestamp.Format("15:04:05"), frame.Kind, payload)
	}
}

// renderQR draws the pairing code as a terminal QR block.
func renderQR(payload json.RawMessage) {
	var qr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(payload, &qr); err != nil || qr.Code == "" {
		return
	}
	code, err := qrcode.New(qr.Code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot render qr: %v\n", err)
		return
	}
	fmt.Println("Scan this QR code with the phone app:")
	fmt.Println(code.ToSmallString(false))
}
