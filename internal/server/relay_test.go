package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stranger-chat/internal/testutil"
)

type relayFixture struct {
	relay    *MessageRelay
	registry *ConnectionRegistry
	rooms    *RoomManager
	a, b     *fakePeer
	roomID   string
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	registry := NewConnectionRegistry()
	rooms := NewRoomManager()
	relay := NewMessageRelay(registry, rooms, stubFilter{}, testutil.TestLogger(t))

	a := &fakePeer{id: "a"}
	b := &fakePeer{id: "b"}
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))

	roomID, err := rooms.CreateRoom("a", "b")
	require.NoError(t, err)

	return &relayFixture{
		relay:    relay,
		registry: registry,
		rooms:    rooms,
		a:        a,
		b:        b,
		roomID:   roomID,
	}
}

func TestMessageRelay_SendMessage(t *testing.T) {
	f := newRelayFixture(t)

	err := f.relay.SendMessage("a", f.roomID, "  hello there  ")
	require.NoError(t, err)

	require.Len(t, f.b.msgs, 1, "expected exactly one message at the partner")
	msg := f.b.msgs[0].Message
	require.NotNil(t, msg)
	assert.Equal(t, "hello there", msg.Text, "expected the text to be trimmed")
	assert.Equal(t, "stranger", msg.Sender)
	assert.False(t, msg.Timestamp.IsZero(), "expected a server-assigned timestamp")

	assert.Empty(t, f.a.msgs, "expected the sender not to receive its own message")
}

func TestMessageRelay_SendMessageValidation(t *testing.T) {
	tcases := []struct {
		name   string
		sender string
		room   string
		text   string
		err    error
	}{
		{
			name:   "missing room",
			sender: "a",
			room:   "",
			text:   "hi",
			err:    ErrInvalidPayload,
		},
		{
			name:   "empty message",
			sender: "a",
			text:   "   \t  ",
			err:    ErrEmptyMessage,
		},
		{
			name:   "message too long",
			sender: "a",
			text:   strings.Repeat("x", maxMessageLen+1),
			err:    ErrMessageTooLong,
		},
		{
			name:   "not a room member",
			sender: "c",
			text:   "hi",
			err:    ErrNotRoomMember,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRelayFixture(t)

			room := tc.room
			if tc.name != "missing room" {
				room = f.roomID
			}

			err := f.relay.SendMessage(tc.sender, room, tc.text)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, f.a.msgs, "expected no broadcast on validation failure")
			assert.Empty(t, f.b.msgs, "expected no broadcast on validation failure")
		})
	}
}

func TestMessageRelay_LengthBoundIsInRunes(t *testing.T) {
	f := newRelayFixture(t)

	// exactly at the bound, multi-byte runes
	err := f.relay.SendMessage("a", f.roomID, strings.Repeat("é", maxMessageLen))
	assert.NoError(t, err, "expected a message of exactly %d runes to pass", maxMessageLen)

	err = f.relay.SendMessage("a", f.roomID, strings.Repeat("é", maxMessageLen+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestMessageRelay_StripsMarkup(t *testing.T) {
	f := newRelayFixture(t)

	err := f.relay.SendMessage("a", f.roomID, "<script>hi</script>")
	require.NoError(t, err)

	require.Len(t, f.b.msgs, 1)
	assert.Equal(t, "scripthi/script", f.b.msgs[0].Message.Text)
}

func TestMessageRelay_CensorsText(t *testing.T) {
	f := newRelayFixture(t)

	err := f.relay.SendMessage("a", f.roomID, "you sneaky badger you")
	require.NoError(t, err)

	require.Len(t, f.b.msgs, 1)
	assert.Equal(t, "you sneaky ***** you", f.b.msgs[0].Message.Text)
}

func TestMessageRelay_NoBroadcastAfterPartnerLeft(t *testing.T) {
	f := newRelayFixture(t)

	f.rooms.Leave(f.roomID, "b")

	err := f.relay.SendMessage("a", f.roomID, "anyone there?")
	assert.ErrorIs(t, err, ErrNotRoomMember,
		"expected sends into a deactivated room to fail the membership gate")
	assert.Empty(t, f.b.msgs)
}

func TestMessageRelay_ExtendSession(t *testing.T) {
	f := newRelayFixture(t)

	err := f.relay.ExtendSession("a", f.roomID)
	require.NoError(t, err)

	require.Len(t, f.b.msgs, 1, "expected the extension notification at the partner")
	assert.NotNil(t, f.b.msgs[0].TimeExtended)
	assert.Empty(t, f.a.msgs, "expected no echo to the sender")
}

func TestMessageRelay_ExtendSessionValidation(t *testing.T) {
	f := newRelayFixture(t)

	assert.ErrorIs(t, f.relay.ExtendSession("a", ""), ErrInvalidPayload)
	assert.ErrorIs(t, f.relay.ExtendSession("c", f.roomID), ErrNotRoomMember)
	assert.Empty(t, f.b.msgs)
}
