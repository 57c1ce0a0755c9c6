package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin        = "join"
	MsgLeave       = "leave"
	MsgInput       = "input"
	MsgReady       = "ready"
	MsgSignalJoin  = "signal-join"
	MsgSignal      = "signal"
	MsgStroke      = "stroke"
	MsgStrokeFetch = "stroke-fetch"
	MsgStrokeClear = "stroke-clear"
)

// Server -> Client message types
const (
	MsgJoined      = "joined"
	MsgPlayersList = "players-list"
	MsgPlayerLeft  = "player-left"
	MsgReadyUpdate = "player-ready-update"
	MsgMatchStart  = "match-started"
	MsgTimerUpdate = "timer-update"
	MsgMatchEnded  = "match-ended"
	MsgGameState   = "game-state"
	MsgGameEvent   = "game-event"
	MsgStrokePage  = "stroke-page"
	MsgError       = "error"
)

// Game event types carried in game-event payloads
const (
	EventHit    = "hit"
	EventKilled = "killed"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg asks to join (and lazily create) a room. Token, when present
// and valid for the same room, resumes a previous player identity.
type JoinMsg struct {
	Room  string `json:"room"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// RoomRef names a room in leave requests
type RoomRef struct {
	Room string `json:"room"`
}

// InputMsg is one control frame from a client. Turn and Thrust are in
// [-1, 1]; Seq is echoed back as the player's last applied sequence.
type InputMsg struct {
	Room   string  `json:"room"`
	Seq    int     `json:"seq"`
	Turn   float64 `json:"turn"`
	Thrust float64 `json:"thrust"`
	Fire   bool    `json:"fire"`
}

// ReadyMsg toggles the sender's ready flag
type ReadyMsg struct {
	Room  string `json:"room"`
	Ready bool   `json:"ready"`
}

// JoinedMsg acknowledges a successful join
type JoinedMsg struct {
	ID    string `json:"id"`
	Room  string `json:"room"`
	Token string `json:"token"`
}

// PlayerState is broadcast per player in list and snapshot payloads
type PlayerState struct {
	ID    string  `json:"id"`
	Name  string  `json:"n"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	A     float64 `json:"a"` // heading radians
	HP    int     `json:"hp"`
	Kills int     `json:"k"`
	Ready bool    `json:"r"`
	Seq   int     `json:"seq"` // last applied input sequence
}

// BulletState is broadcast per bullet each tick
type BulletState struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Owner string  `json:"o"`
}

// ReadyUpdateMsg is the incremental ready broadcast
type ReadyUpdateMsg struct {
	ID    string `json:"id"`
	Ready bool   `json:"ready"`
}

// MatchStartedMsg announces a match start to the room
type MatchStartedMsg struct {
	MatchDuration int `json:"matchDuration"`
}

// RankEntry is one row of the final rankings
type RankEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kills int    `json:"kills"`
}

// WinnerInfo names the match winner. A nil ID with name "Draw" marks a
// tie at the top; the field is omitted entirely when nobody scored.
type WinnerInfo struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Kills int     `json:"kills"`
}

// MatchEndedMsg carries the final rankings and winner
type MatchEndedMsg struct {
	Rankings []RankEntry `json:"rankings"`
	Winner   *WinnerInfo `json:"winner,omitempty"`
}

// GameEventMsg is a combat event (hit or kill)
type GameEventMsg struct {
	Type     string  `json:"type"`
	Target   string  `json:"target,omitempty"`
	By       string  `json:"by,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Obstacle bool    `json:"obstacle,omitempty"`
}

// GameStateMsg is the per-tick snapshot, msgpack-encoded as a binary frame
type GameStateMsg struct {
	T         int64         `json:"t"` // wall clock, unix ms
	Seq       uint64        `json:"seq"`
	Players   []PlayerState `json:"players"`
	Bullets   []BulletState `json:"bullets"`
	Obstacles *Arena        `json:"obstacles"`
	TimeLeft  float64       `json:"timeLeft"`
}

// SignalJoinMsg attaches the sender to a signaling room
type SignalJoinMsg struct {
	Room string `json:"room"`
}

// SignalMsg is an opaque WebRTC payload relayed to the other peer
type SignalMsg struct {
	Room    string          `json:"room"`
	From    string          `json:"from,omitempty"`
	Kind    string          `json:"kind"` // offer | answer | candidate
	Payload json.RawMessage `json:"payload"`
}

// StrokeMsg appends one stroke to a whiteboard page
type StrokeMsg struct {
	Page string          `json:"page"`
	Data json.RawMessage `json:"data"`
}

// StrokeFetchMsg requests the full stroke log of a page
type StrokeFetchMsg struct {
	Page string `json:"page"`
}

// StrokePageMsg is the reply to a fetch
type StrokePageMsg struct {
	Page    string            `json:"page"`
	Strokes []json.RawMessage `json:"strokes"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
