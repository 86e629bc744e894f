package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordedCall struct {
	path    string
	payload map[string]interface{}
}

func newTestClient(t *testing.T, response string) (*Client, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		calls = append(calls, recordedCall{path: r.URL.Path, payload: payload})

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test-token", "12345", 5*time.Second, testLogger())
	return client, &calls
}

func TestSendMessage(t *testing.T) {
	client, calls := newTestClient(t, `{"ok": true, "result": {}}`)

	if err := client.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.path != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path %q", call.path)
	}
	if call.payload["chat_id"] != "12345" {
		t.Errorf("unexpected chat_id %v", call.payload["chat_id"])
	}
	if call.payload["text"] != "hello" {
		t.Errorf("unexpected text %v", call.payload["text"])
	}
	if call.payload["parse_mode"] != "Markdown" {
		t.Errorf("unexpected parse_mode %v", call.payload["parse_mode"])
	}
}

func TestSendMessageWithKeyboard(t *testing.T) {
	client, calls := newTestClient(t, `{"ok": true, "result": {}}`)

	keyboard := &InlineKeyboard{
		InlineKeyboard: [][]Button{{{Text: "Positions", CallbackData: "position"}}},
	}
	if err := client.SendMessageWithKeyboard(context.Background(), "menu", keyboard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := (*calls)[0].payload["reply_markup"]; !ok {
		t.Error("expected reply_markup in payload")
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client, _ := newTestClient(t, `{"ok": false, "description": "chat not found"}`)

	err := client.SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error on ok=false response")
	}
}

func TestGetUpdates(t *testing.T) {
	response := `{"ok": true, "result": [
		{"update_id": 7, "message": {"text": "/position", "chat": {"id": 12345}}},
		{"update_id": 8, "callback_query": {"id": "cb1", "data": "prices"}}
	]}`
	client, calls := newTestClient(t, response)

	updates, err := client.GetUpdates(context.Background(), 7, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/position" {
		t.Errorf("unexpected first update: %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "prices" {
		t.Errorf("unexpected second update: %+v", updates[1])
	}

	payload := (*calls)[0].payload
	if payload["offset"] != float64(7) {
		t.Errorf("unexpected offset %v", payload["offset"])
	}
	if payload["timeout"] != float64(30) {
		t.Errorf("unexpected timeout %v", payload["timeout"])
	}
}

func TestAuthorizedChat(t *testing.T) {
	client := NewClient("http://unused", "token", "12345", time.Second, testLogger())

	if !client.AuthorizedChat(12345) {
		t.Error("expected configured chat to be authorized")
	}
	if client.AuthorizedChat(99999) {
		t.Error("expected foreign chat to be rejected")
	}
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, `{"ok": true, "result": {"username": "hlmon_bot"}}`)

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
