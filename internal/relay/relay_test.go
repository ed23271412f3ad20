package relay

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimagame/minima/internal/channel"
	"github.com/minimagame/minima/internal/protocol"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func startTestRelay(t *testing.T) (*Relay, string) {
	t.Helper()
	r := New("", testLogger())
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return r, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRelayForwardsToOthersInRoom(t *testing.T) {
	r, wsURL := startTestRelay(t)

	a := channel.NewWSEndpoint(wsURL, testLogger())
	b := channel.NewWSEndpoint(wsURL, testLogger())
	require.NoError(t, a.Connect("1234"))
	require.NoError(t, b.Connect("1234"))
	defer a.Disconnect()
	defer b.Disconnect()

	waitFor(t, func() bool { return r.RoomSize("1234") == 2 }, "both clients should register")

	gotB := make(chan *protocol.Message, 1)
	gotA := make(chan *protocol.Message, 1)
	b.On(protocol.TypeJoinRequest, func(m *protocol.Message) { gotB <- m })
	a.On(protocol.TypeJoinRequest, func(m *protocol.Message) { gotA <- m })

	a.Send(protocol.TypeJoinRequest, protocol.JoinRequestData{Name: "alice", Token: "t"})

	select {
	case m := <-gotB:
		var data protocol.JoinRequestData
		require.NoError(t, m.Decode(&data))
		assert.Equal(t, "alice", data.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("peer never received forwarded frame")
	}

	select {
	case <-gotA:
		t.Fatal("sender received its own frame")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelayIsolatesRooms(t *testing.T) {
	_, wsURL := startTestRelay(t)

	a := channel.NewWSEndpoint(wsURL, testLogger())
	b := channel.NewWSEndpoint(wsURL, testLogger())
	require.NoError(t, a.Connect("1111"))
	require.NoError(t, b.Connect("2222"))
	defer a.Disconnect()
	defer b.Disconnect()

	got := make(chan struct{}, 1)
	b.On(protocol.TypeGameUpdate, func(*protocol.Message) { got <- struct{}{} })

	a.Send(protocol.TypeGameUpdate, nil)

	select {
	case <-got:
		t.Fatal("frame crossed rooms")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestShutdownDetachesConnsBeforeClosing(t *testing.T) {
	r, wsURL := startTestRelay(t)

	a := channel.NewWSEndpoint(wsURL, testLogger())
	b := channel.NewWSEndpoint(wsURL, testLogger())
	require.NoError(t, a.Connect("7777"))
	require.NoError(t, b.Connect("7777"))
	defer a.Disconnect()
	defer b.Disconnect()
	waitFor(t, func() bool { return r.RoomSize("7777") == 2 }, "both clients should register")

	r.mu.RLock()
	var sender *conn
	for c := range r.rooms["7777"] {
		sender = c
		break
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	// Every conn left the room before its send channel closed, so a
	// frame caught mid-flight fans out to nobody rather than into a
	// closed channel.
	assert.Equal(t, 0, r.RoomSize("7777"))
	r.forward(sender, []byte("{}"))
}

func TestRelayUnregistersOnDisconnect(t *testing.T) {
	r, wsURL := startTestRelay(t)

	a := channel.NewWSEndpoint(wsURL, testLogger())
	require.NoError(t, a.Connect("9999"))
	waitFor(t, func() bool { return r.RoomSize("9999") == 1 }, "client should register")

	a.Disconnect()
	waitFor(t, func() bool { return r.RoomSize("9999") == 0 }, "client should unregister")
}
