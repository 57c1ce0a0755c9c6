package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 8192
	sendBufSize       = 256
	maxMessagesPerSec = 120 // 45Hz input + whiteboard traffic with headroom
	maxNameLen        = 16
)

// Client represents one WebSocket connection. Its connection id doubles
// as the opaque player id the simulation sees.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	playerID   string
	roomName   string
	signalRoom string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh connection id
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     uuid.NewString(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marker distinguishes binary frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgReady:
		c.handleReady(env.D)
	case MsgSignalJoin:
		c.handleSignalJoin(env.D)
	case MsgSignal:
		c.handleSignal(env.D)
	case MsgStroke:
		c.handleStroke(env.D)
	case MsgStrokeFetch:
		c.handleStrokeFetch(env.D)
	case MsgStrokeClear:
		c.handleStrokeClear(env.D)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "room name required"}})
		return
	}
	name := msg.Name
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	// A valid resume token for this room restores the old player id,
	// which keeps the kill count across a reconnect
	pid := c.connID
	if msg.Token != "" {
		if tokenPID, tokenRoom, err := c.hub.tokens.Parse(msg.Token); err == nil && tokenRoom == room {
			pid = tokenPID
		}
	}

	// Joining another room, or the same room under a different resolved
	// id, is an implicit leave. The old entry must not stay behind: a
	// ghost occupant blocks ready-gating and keeps the room alive after
	// every real connection is gone.
	if c.roomName != "" && (c.roomName != room || c.playerID != pid) {
		c.hub.rooms.RemovePlayer(c.roomName, c.playerID)
		c.roomName = ""
		c.playerID = ""
	}

	rm, _ := c.hub.rooms.Join(room, pid, name)
	rm.SetClient(pid, c)
	c.roomName = room
	c.playerID = pid

	token, err := c.hub.tokens.Issue(pid, room)
	if err != nil {
		token = ""
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{ID: pid, Room: room, Token: token}})
	rm.BroadcastPlayerList()
}

func (c *Client) handleLeave(data json.RawMessage) {
	var msg RoomRef
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" || room != c.roomName {
		return
	}
	c.hub.rooms.RemovePlayer(room, c.playerID)
	c.roomName = ""
	c.playerID = ""
}

func (c *Client) handleInput(data json.RawMessage) {
	var msg InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" || room != c.roomName {
		return
	}
	rm := c.hub.rooms.Get(room)
	if rm == nil {
		return
	}
	rm.ReceiveInput(c.playerID, msg)
}

func (c *Client) handleReady(data json.RawMessage) {
	var msg ReadyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" || room != c.roomName {
		return
	}
	rm := c.hub.rooms.Get(room)
	if rm == nil {
		return
	}
	rm.SetReady(c.playerID, msg.Ready)
}

func (c *Client) handleSignalJoin(data json.RawMessage) {
	var msg SignalJoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" {
		return
	}
	if c.signalRoom != "" && c.signalRoom != room {
		c.hub.signals.Leave(c.signalRoom, c.connID)
	}
	if !c.hub.signals.Join(room, c.connID, c) {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "signaling room full"}})
		return
	}
	c.signalRoom = room
}

func (c *Client) handleSignal(data json.RawMessage) {
	var msg SignalMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := NormalizeRoomName(msg.Room)
	if room == "" || room != c.signalRoom {
		return
	}
	c.hub.signals.Relay(room, c.connID, msg)
}

func (c *Client) handleStroke(data json.RawMessage) {
	var msg StrokeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Page == "" || len(msg.Data) == 0 {
		return
	}
	c.hub.board.AddStroke(msg.Page, msg.Data)

	// Relay to everyone else so boards converge live
	c.hub.mu.RLock()
	for other := range c.hub.clients {
		if other != c {
			other.SendJSON(Envelope{T: MsgStroke, Data: msg})
		}
	}
	c.hub.mu.RUnlock()
}

func (c *Client) handleStrokeFetch(data json.RawMessage) {
	var msg StrokeFetchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Page == "" {
		return
	}
	c.SendJSON(Envelope{T: MsgStrokePage, Data: StrokePageMsg{
		Page:    msg.Page,
		Strokes: c.hub.board.PageStrokes(msg.Page),
	}})
}

func (c *Client) handleStrokeClear(data json.RawMessage) {
	var msg StrokeFetchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Page == "" {
		return
	}
	c.hub.board.ClearPage(msg.Page)
}
