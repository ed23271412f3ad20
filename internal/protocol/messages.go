package protocol

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of message on the room channel.
type MessageType string

const (
	// Client -> Host
	TypeJoinRequest  MessageType = "JOIN_REQUEST"
	TypePlayerAction MessageType = "PLAYER_ACTION"

	// Host -> Clients
	TypeJoinAck    MessageType = "JOIN_ACK"
	TypeGameUpdate MessageType = "GAME_UPDATE"
)

// ActionType is the intent vocabulary clients submit for host validation.
type ActionType string

const (
	ActionDiscard ActionType = "DISCARD"
	ActionDraw    ActionType = "DRAW"
	ActionShow    ActionType = "SHOW"
)

// Message is the envelope every channel payload travels in. Receivers
// must discard any message whose RoomID does not match their own room.
type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    string          `json:"roomId"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload in an envelope with the current timestamp.
func NewMessage(messageType MessageType, roomID string, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		RoomID:    roomID,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Decode unmarshals the envelope's payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

// Client -> Host payloads

// JoinRequestData asks the host for a seat. The token is a
// requester-generated correlation id echoed back in the ack, so two
// concurrent joiners with the same display name cannot adopt each
// other's identity.
type JoinRequestData struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
	IsBot bool   `json:"isBot,omitempty"`
}

// PlayerActionData is a client intent, validated by the host before any
// state change. Data carries the action-specific payload.
type PlayerActionData struct {
	ActionType ActionType      `json:"actionType"`
	PlayerID   int             `json:"playerId"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// DiscardData selects hand slots by index, in submission order.
type DiscardData struct {
	Indices []int `json:"indices"`
}

// DrawData selects the draw source.
type DrawData struct {
	FromDiscard bool `json:"fromDiscard"`
}

// Host -> Client payloads

// JoinAckData informs a specific joiner of its assigned player id.
// Correlation is by token when present, by name as the fallback.
type JoinAckData struct {
	Name       string `json:"name"`
	Token      string `json:"token,omitempty"`
	AssignedID int    `json:"assignedId"`
}

// GAME_UPDATE carries the full game.State as its payload; there is no
// dedicated wrapper type, the state aggregate is the wire form.

// NewPlayerAction builds a PLAYER_ACTION payload with an encoded inner
// data value.
func NewPlayerAction(actionType ActionType, playerID int, data interface{}) (*PlayerActionData, error) {
	action := &PlayerActionData{
		ActionType: actionType,
		PlayerID:   playerID,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		action.Data = raw
	}
	return action, nil
}
