package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		var req RequestPayload
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Action != ActionPing {
			_ = conn.WriteError("UNSUPPORTED_MESSAGE", "unsupported action "+string(req.Action))
			return
		}

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = conn.WriteTyped(PongResponse{Event: EventPong})
			}()
		}
		wg.Wait()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConcurrentWritesArriveWhole(t *testing.T) {
	conn := dial(t, echoServer(t))
	if err := conn.WriteJSON(RequestPayload{Action: ActionPing}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		var resp PongResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if resp.Event != EventPong {
			t.Fatalf("message %d: got event %q", i, resp.Event)
		}
	}
}

func TestWriteErrorPayload(t *testing.T) {
	conn := dial(t, echoServer(t))
	if err := conn.WriteJSON(RequestPayload{Action: "shout"}); err != nil {
		t.Fatal(err)
	}

	var resp ErrorResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Event != EventError || resp.Code != "UNSUPPORTED_MESSAGE" || !strings.Contains(resp.Error, "shout") {
		t.Fatalf("unexpected error payload: %+v", resp)
	}
}
