package server

import (
	"context"
	"log"

	"stranger-chat/internal/stats"
)

// ChatServer wires the registry, queue, rooms and relay to inbound
// connection events. A single goroutine running Run owns all of the
// mutable state and processes one event to completion before the next,
// so the component operations need no locking of their own.
type ChatServer struct {
	log      *log.Logger
	stats    stats.StatsProvider
	registry *ConnectionRegistry
	queue    *MatchQueue
	rooms    *RoomManager
	relay    *MessageRelay

	events         chan *ClientMessage
	registerChan   chan Peer
	deregisterChan chan Peer
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, filter ProfanityFilter, st stats.StatsProvider) (*ChatServer, error) {
	registry := NewConnectionRegistry()
	rooms := NewRoomManager()

	cs := &ChatServer{
		log:            logger,
		stats:          st,
		registry:       registry,
		queue:          NewMatchQueue(registry, rooms),
		rooms:          rooms,
		relay:          NewMessageRelay(registry, rooms, filter, logger),
		events:         make(chan *ClientMessage, 256),
		registerChan:   make(chan Peer),
		deregisterChan: make(chan Peer),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	st.RegisterMetric(stats.ConnectionsGauge)
	st.RegisterMetric(stats.ActiveRoomsGauge)
	st.RegisterMetric(stats.QueueLengthGauge)

	return cs, nil
}

// Run is the dispatch loop. It must be the only goroutine touching the
// registry, queue and room set.
func (cs *ChatServer) Run() {
	for {
		select {
		case p := <-cs.registerChan:
			cs.handleRegister(p)
		case p := <-cs.deregisterChan:
			cs.handleDisconnect(p)
		case msg := <-cs.events:
			cs.dispatch(msg)
		case <-cs.stop:
			cs.log.Println("closing connections")
			for _, p := range cs.registry.Peers() {
				p.Close()
			}
			close(cs.done)
			return
		}

		cs.publishGauges()
	}
}

// RegisterClient hands a new connection to the dispatch loop.
func (cs *ChatServer) RegisterClient(p Peer) {
	select {
	case cs.registerChan <- p:
	case <-cs.done:
	}
}

// DeregisterClient triggers the disconnect cascade for a connection.
func (cs *ChatServer) DeregisterClient(p Peer) {
	select {
	case cs.deregisterChan <- p:
	case <-cs.done:
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down chat server")
	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) dispatch(msg *ClientMessage) {
	switch {
	case msg.Search != nil:
		cs.handleSearch(msg.peer)
	case msg.Message != nil:
		cs.handleMessage(msg.peer, msg.Message)
	case msg.ExtendTime != nil:
		cs.handleExtendTime(msg.peer, msg.ExtendTime)
	case msg.Leave != nil:
		cs.handleLeave(msg.peer, msg.Leave)
	default:
		msg.peer.Queue(NewErrorEvent(ErrInvalidPayload))
	}
}

func (cs *ChatServer) handleRegister(p Peer) {
	if err := cs.registry.Register(p); err != nil {
		// Duplicate ids cannot happen under correct transport
		// semantics; treat as an invariant violation and drop
		// the connection.
		cs.log.Printf("register %q: %v", p.ID(), err)
		p.Close()
		return
	}

	cs.log.Printf("connection %q registered", p.ID())
}

// handleSearch runs the pairing algorithm for p. A membership left
// over from a session the partner already ended is released first; a
// dead room must not keep a connection from searching again.
func (cs *ChatServer) handleSearch(p Peer) {
	id := p.ID()

	if roomID, ok := cs.rooms.RoomOf(id); ok && !cs.rooms.Active(roomID) {
		cs.rooms.Leave(roomID, id)
	}

	partner, err := cs.queue.RequestMatch(id)
	if err != nil {
		p.Queue(NewErrorEvent(err))
		return
	}
	if partner == "" {
		cs.log.Printf("connection %q waiting for a partner", id)
		return
	}

	roomID, err := cs.rooms.CreateRoom(id, partner)
	if err != nil {
		cs.log.Printf("create room for %q and %q: %v", id, partner, err)
		p.Queue(NewErrorEvent(err))
		return
	}

	cs.log.Printf("matched %q with %q in %q", id, partner, roomID)

	matched := NewMatched(roomID)
	p.Queue(matched)
	if peer, ok := cs.registry.Peer(partner); ok {
		peer.Queue(matched)
	}
}

func (cs *ChatServer) handleMessage(p Peer, req *MessageReq) {
	if err := cs.relay.SendMessage(p.ID(), req.Room, req.Text); err != nil {
		p.Queue(NewErrorEvent(err))
	}
}

func (cs *ChatServer) handleExtendTime(p Peer, req *ExtendTime) {
	if err := cs.relay.ExtendSession(p.ID(), req.Room); err != nil {
		p.Queue(NewErrorEvent(err))
	}
}

func (cs *ChatServer) handleLeave(p Peer, req *Leave) {
	if req.Room == "" {
		p.Queue(NewErrorEvent(ErrInvalidPayload))
		return
	}

	id := p.ID()
	wasMember := cs.rooms.IsMember(req.Room, id)
	others := cs.rooms.OtherMembers(req.Room, id)

	cs.rooms.Leave(req.Room, id)

	if wasMember {
		cs.notify(others, NewPartnerLeft())
	}
}

// handleDisconnect is the disconnect cascade. Every step is a no-op
// when there is nothing left to undo, so running it twice for the same
// connection is harmless.
func (cs *ChatServer) handleDisconnect(p Peer) {
	id := p.ID()
	cs.log.Printf("connection %q disconnected", id)

	cs.queue.Remove(id)

	if roomID, ok := cs.rooms.RoomOf(id); ok {
		wasMember := cs.rooms.IsMember(roomID, id)
		others := cs.rooms.OtherMembers(roomID, id)

		cs.rooms.Leave(roomID, id)

		if wasMember {
			cs.notify(others, NewPartnerLeft())
		}
	}

	cs.registry.Unregister(id)
}

func (cs *ChatServer) notify(ids []string, msg *ServerMessage) {
	for _, id := range ids {
		if peer, ok := cs.registry.Peer(id); ok {
			peer.Queue(msg)
		}
	}
}

func (cs *ChatServer) publishGauges() {
	cs.stats.Set(stats.ConnectionsGauge, int64(cs.registry.Len()))
	cs.stats.Set(stats.ActiveRoomsGauge, int64(cs.rooms.Len()))
	cs.stats.Set(stats.QueueLengthGauge, int64(cs.queue.Len()))
}
