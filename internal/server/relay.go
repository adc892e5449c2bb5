package server

import (
	"log"
	"strings"
	"unicode/utf8"
)

// maxMessageLen bounds relayed message content. This is a moderation
// bound, separate from the transport's frame size limit.
const maxMessageLen = 500

// ProfanityFilter is the moderation collaborator, loaded once at
// startup and immutable afterwards.
type ProfanityFilter interface {
	Censor(text string) string
	IsProhibited(text string) bool
}

var markupStripper = strings.NewReplacer("<", "", ">", "")

// MessageRelay validates and forwards chat and session-control events
// between room members. It holds no message state of its own.
type MessageRelay struct {
	registry *ConnectionRegistry
	rooms    *RoomManager
	filter   ProfanityFilter
	log      *log.Logger
}

func NewMessageRelay(registry *ConnectionRegistry, rooms *RoomManager, filter ProfanityFilter, logger *log.Logger) *MessageRelay {
	return &MessageRelay{
		registry: registry,
		rooms:    rooms,
		filter:   filter,
		log:      logger,
	}
}

// SendMessage relays text from sender to the other room members. The
// text is trimmed, bounded, stripped of markup characters and censored
// before broadcast; the sender never receives its own message back.
func (mr *MessageRelay) SendMessage(senderID, roomID, rawText string) error {
	if roomID == "" {
		return ErrInvalidPayload
	}

	text := strings.TrimSpace(rawText)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxMessageLen {
		return ErrMessageTooLong
	}

	if !mr.rooms.IsMember(roomID, senderID) {
		return ErrNotRoomMember
	}

	text = markupStripper.Replace(text)
	text = mr.filter.Censor(text)

	mr.broadcast(roomID, senderID, NewChatMessage(text))
	return nil
}

// ExtendSession relays a content-free extension notification. The
// server keeps no countdown of its own; each endpoint adjusts its own
// timer when sending or receiving this event.
func (mr *MessageRelay) ExtendSession(senderID, roomID string) error {
	if roomID == "" {
		return ErrInvalidPayload
	}

	if !mr.rooms.IsMember(roomID, senderID) {
		return ErrNotRoomMember
	}

	mr.broadcast(roomID, senderID, NewTimeExtended())
	return nil
}

func (mr *MessageRelay) broadcast(roomID, senderID string, msg *ServerMessage) {
	for _, id := range mr.rooms.OtherMembers(roomID, senderID) {
		peer, ok := mr.registry.Peer(id)
		if !ok {
			continue
		}

		if !peer.Queue(msg) {
			mr.log.Printf("dropping message for %q, send queue full", id)
		}
	}
}
