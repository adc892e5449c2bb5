package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"stranger-chat/internal/stats"
	"stranger-chat/internal/testutil"
)

// fakePeer records everything queued to it.
type fakePeer struct {
	id     string
	msgs   []*ServerMessage
	closed bool
	full   bool
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Queue(msg *ServerMessage) bool {
	if p.full {
		return false
	}
	p.msgs = append(p.msgs, msg)
	return true
}

func (p *fakePeer) Close() { p.closed = true }

// stubFilter censors the word "badger".
type stubFilter struct{}

func (stubFilter) Censor(s string) string {
	return strings.ReplaceAll(s, "badger", "*****")
}

func (stubFilter) IsProhibited(s string) bool {
	return strings.Contains(s, "badger")
}

// newTestChatServer creates a ChatServer instance for testing purposes.
func newTestChatServer(t *testing.T, su *stats.MockStatsUpdater) *ChatServer {
	t.Helper()
	su.On("RegisterMetric", mock.Anything).Times(3)

	logger := testutil.TestLogger(t)
	cs, err := NewChatServer(logger, stubFilter{}, su)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

// register adds a fake peer with the given id directly to the server's
// registry.
func register(t *testing.T, cs *ChatServer, id string) *fakePeer {
	t.Helper()
	p := &fakePeer{id: id}
	if err := cs.registry.Register(p); err != nil {
		t.Fatalf("failed to register peer %q: %v", id, err)
	}
	return p
}
