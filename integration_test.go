package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

type wsEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(NewWhiteboard(nil))
	go hub.Run()
	srv := httptest.NewServer(SetupRoutes(hub, ""))
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	d, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := conn.WriteJSON(InEnvelope{T: msgType, D: d}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readType reads text frames until one of the wanted type arrives,
// skipping binary snapshots and unrelated broadcasts.
func readType(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %q: %v", want, err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if env.T == want {
			return env.D
		}
	}
	t.Fatalf("timed out waiting for %q", want)
	return nil
}

// readBinary reads frames until a binary snapshot arrives
func readBinary(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for snapshot: %v", err)
		}
		if mt == websocket.BinaryMessage {
			return data
		}
	}
	t.Fatalf("timed out waiting for snapshot")
	return nil
}

func TestIntegrationJoinReadyMatch(t *testing.T) {
	srv, _ := newTestServer(t)
	c1 := dialWS(t, srv)
	c2 := dialWS(t, srv)

	// Differently cased and padded names land in the same room
	sendWS(t, c1, MsgJoin, JoinMsg{Room: "  ArEnA ", Name: "Alice"})
	var j1 JoinedMsg
	if err := json.Unmarshal(readType(t, c1, MsgJoined), &j1); err != nil {
		t.Fatalf("joined: %v", err)
	}
	if j1.Room != "arena" {
		t.Errorf("room name should normalize to arena, got %q", j1.Room)
	}
	if j1.ID == "" || j1.Token == "" {
		t.Errorf("join ack should carry id and resume token, got %+v", j1)
	}

	sendWS(t, c2, MsgJoin, JoinMsg{Room: "ARENA", Name: "Bob"})
	var j2 JoinedMsg
	if err := json.Unmarshal(readType(t, c2, MsgJoined), &j2); err != nil {
		t.Fatalf("joined: %v", err)
	}

	// Both ends converge on a two-player list
	var list []PlayerState
	if err := json.Unmarshal(readType(t, c2, MsgPlayersList), &list); err != nil {
		t.Fatalf("players-list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 players in list, got %d", len(list))
	}

	sendWS(t, c1, MsgReady, ReadyMsg{Room: "arena", Ready: true})
	sendWS(t, c2, MsgReady, ReadyMsg{Room: "arena", Ready: true})

	var started MatchStartedMsg
	if err := json.Unmarshal(readType(t, c1, MsgMatchStart), &started); err != nil {
		t.Fatalf("match-started: %v", err)
	}
	if started.MatchDuration != int(MatchDuration) {
		t.Errorf("expected duration %v, got %d", MatchDuration, started.MatchDuration)
	}

	// Binary snapshots flow once the match runs
	var state GameStateMsg
	if err := msgpack.Unmarshal(readBinary(t, c2), &state); err != nil {
		t.Fatalf("snapshot unmarshal: %v", err)
	}
	if len(state.Players) != 2 {
		t.Errorf("expected 2 players in snapshot, got %d", len(state.Players))
	}
	if state.Obstacles == nil {
		t.Error("snapshot should carry the arena layout")
	}
}

func TestIntegrationResumeToken(t *testing.T) {
	srv, _ := newTestServer(t)
	keeper := dialWS(t, srv) // keeps the room alive across the reconnect
	sendWS(t, keeper, MsgJoin, JoinMsg{Room: "arena", Name: "Keeper"})
	readType(t, keeper, MsgJoined)

	c1 := dialWS(t, srv)
	sendWS(t, c1, MsgJoin, JoinMsg{Room: "arena", Name: "Alice"})
	var first JoinedMsg
	if err := json.Unmarshal(readType(t, c1, MsgJoined), &first); err != nil {
		t.Fatalf("joined: %v", err)
	}

	c1.Close()
	time.Sleep(200 * time.Millisecond)

	c2 := dialWS(t, srv)
	sendWS(t, c2, MsgJoin, JoinMsg{Room: "arena", Name: "Alice", Token: first.Token})
	var second JoinedMsg
	if err := json.Unmarshal(readType(t, c2, MsgJoined), &second); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resume token should restore the player id: %q != %q", second.ID, first.ID)
	}
}

func TestIntegrationRejoinSwitchesIdentity(t *testing.T) {
	srv, hub := newTestServer(t)

	// First occupant establishes an identity and a resume token
	c1 := dialWS(t, srv)
	sendWS(t, c1, MsgJoin, JoinMsg{Room: "arena", Name: "Alice"})
	var first JoinedMsg
	if err := json.Unmarshal(readType(t, c1, MsgJoined), &first); err != nil {
		t.Fatalf("joined: %v", err)
	}
	c1.Close()
	time.Sleep(200 * time.Millisecond)

	// Fresh connection joins tokenless, then re-joins the same room with
	// the old token — the resolved player id changes on one connection
	c2 := dialWS(t, srv)
	sendWS(t, c2, MsgJoin, JoinMsg{Room: "arena", Name: "Alice"})
	var fresh JoinedMsg
	if err := json.Unmarshal(readType(t, c2, MsgJoined), &fresh); err != nil {
		t.Fatalf("joined: %v", err)
	}

	sendWS(t, c2, MsgJoin, JoinMsg{Room: "arena", Name: "Alice", Token: first.Token})
	var resumed JoinedMsg
	if err := json.Unmarshal(readType(t, c2, MsgJoined), &resumed); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if resumed.ID != first.ID {
		t.Fatalf("token re-join should restore the old id: %q != %q", resumed.ID, first.ID)
	}
	if resumed.ID == fresh.ID {
		t.Fatal("expected the re-join to switch identity")
	}

	// The abandoned identity must not linger as a ghost occupant
	room := hub.rooms.Get("arena")
	if room == nil {
		t.Fatal("room should exist while c2 occupies it")
	}
	if got := room.PlayerCount(); got != 1 {
		t.Errorf("one connection should hold one occupancy slot, got %d", got)
	}

	// ...and the room tears down once the real connection leaves
	c2.Close()
	time.Sleep(200 * time.Millisecond)
	if got := hub.rooms.Count(); got != 0 {
		t.Errorf("expected all rooms torn down after last disconnect, got %d", got)
	}
}

func TestIntegrationSignalRelay(t *testing.T) {
	srv, _ := newTestServer(t)
	c1 := dialWS(t, srv)
	c2 := dialWS(t, srv)

	sendWS(t, c1, MsgSignalJoin, SignalJoinMsg{Room: "call"})
	sendWS(t, c2, MsgSignalJoin, SignalJoinMsg{Room: "call"})
	time.Sleep(100 * time.Millisecond)

	sendWS(t, c1, MsgSignal, SignalMsg{
		Room:    "call",
		Kind:    "offer",
		Payload: json.RawMessage(`{"sdp":"v=0"}`),
	})

	var relayed SignalMsg
	if err := json.Unmarshal(readType(t, c2, MsgSignal), &relayed); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if relayed.Kind != "offer" || relayed.From == "" {
		t.Errorf("relay should stamp sender and keep kind, got %+v", relayed)
	}
	if string(relayed.Payload) != `{"sdp":"v=0"}` {
		t.Errorf("payload must pass through untouched, got %s", relayed.Payload)
	}

	// A third peer is turned away
	c3 := dialWS(t, srv)
	sendWS(t, c3, MsgSignalJoin, SignalJoinMsg{Room: "call"})
	var errMsg ErrorMsg
	if err := json.Unmarshal(readType(t, c3, MsgError), &errMsg); err != nil {
		t.Fatalf("error: %v", err)
	}
	if errMsg.Msg == "" {
		t.Error("expected a room-full error")
	}
}

func TestIntegrationWhiteboard(t *testing.T) {
	srv, _ := newTestServer(t)
	c1 := dialWS(t, srv)
	c2 := dialWS(t, srv)
	time.Sleep(100 * time.Millisecond)

	sendWS(t, c1, MsgStroke, StrokeMsg{Page: "p1", Data: json.RawMessage(`{"pts":[[0,0],[5,5]]}`)})

	// Other connections see the stroke live
	var relayed StrokeMsg
	if err := json.Unmarshal(readType(t, c2, MsgStroke), &relayed); err != nil {
		t.Fatalf("stroke relay: %v", err)
	}
	if relayed.Page != "p1" {
		t.Errorf("expected page p1, got %q", relayed.Page)
	}

	// Late fetch replays the full page
	sendWS(t, c2, MsgStrokeFetch, StrokeFetchMsg{Page: "p1"})
	var page StrokePageMsg
	if err := json.Unmarshal(readType(t, c2, MsgStrokePage), &page); err != nil {
		t.Fatalf("stroke-page: %v", err)
	}
	if len(page.Strokes) != 1 {
		t.Fatalf("expected 1 stroke on fetch, got %d", len(page.Strokes))
	}

	sendWS(t, c2, MsgStrokeClear, StrokeFetchMsg{Page: "p1"})
	time.Sleep(100 * time.Millisecond)
	sendWS(t, c2, MsgStrokeFetch, StrokeFetchMsg{Page: "p1"})
	if err := json.Unmarshal(readType(t, c2, MsgStrokePage), &page); err != nil {
		t.Fatalf("stroke-page: %v", err)
	}
	if len(page.Strokes) != 0 {
		t.Errorf("expected empty page after clear, got %d", len(page.Strokes))
	}
}

func TestIntegrationQREndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/qr?room=Arena")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	resp2, err := http.Get(srv.URL + "/qr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("missing room should be 400, got %d", resp2.StatusCode)
	}
}
