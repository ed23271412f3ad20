package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeJoinRequest, "1234", JoinRequestData{
		Name:  "alice",
		Token: "tok-1",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeJoinRequest, decoded.Type)
	assert.Equal(t, "1234", decoded.RoomID)

	var payload JoinRequestData
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, "alice", payload.Name)
	assert.Equal(t, "tok-1", payload.Token)
}

func TestNewPlayerActionEncodesInnerData(t *testing.T) {
	action, err := NewPlayerAction(ActionDiscard, 2, DiscardData{Indices: []int{0, 3}})
	require.NoError(t, err)

	var inner DiscardData
	require.NoError(t, json.Unmarshal(action.Data, &inner))
	assert.Equal(t, []int{0, 3}, inner.Indices)
	assert.Equal(t, 2, action.PlayerID)
}

func TestNewPlayerActionWithoutData(t *testing.T) {
	action, err := NewPlayerAction(ActionShow, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, action.Data)

	// The wire form must stay decodable with an absent data field.
	raw, err := json.Marshal(action)
	require.NoError(t, err)

	var decoded PlayerActionData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ActionShow, decoded.ActionType)
}
